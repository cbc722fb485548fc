package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/simnova/sharethrift/internal/api/middleware"
	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/ports"
)

type stubReservationService struct {
	ports.ReservationService
	requestFn func(ctx context.Context, p passport.Passport, in ports.RequestReservationInput) (*reservation.Reference, error)
	listFn    func(ctx context.Context, p passport.Passport, listingID string) ([]reservation.Reference, error)
	acceptFn  func(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
	closeFn   func(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error)
}

func (s *stubReservationService) Request(ctx context.Context, p passport.Passport, in ports.RequestReservationInput) (*reservation.Reference, error) {
	return s.requestFn(ctx, p, in)
}

func (s *stubReservationService) ListForListing(ctx context.Context, p passport.Passport, listingID string) ([]reservation.Reference, error) {
	return s.listFn(ctx, p, listingID)
}

func (s *stubReservationService) Accept(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error) {
	return s.acceptFn(ctx, p, id)
}

func (s *stubReservationService) Close(ctx context.Context, p passport.Passport, id string) (*reservation.Reference, error) {
	return s.closeFn(ctx, p, id)
}

func requestRef(state reservation.State) *reservation.Reference {
	return &reservation.Reference{
		ID:                     "res_1",
		ListingID:              "lst_1",
		ListingSharerID:        "user_1",
		ReserverID:             "user_2",
		ReservationPeriodStart: periodStart,
		ReservationPeriodEnd:   periodEnd,
		State:                  state,
		Version:                1,
	}
}

func TestReservationHandler_Request_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubReservationService{
		requestFn: func(_ context.Context, p passport.Passport, in ports.RequestReservationInput) (*reservation.Reference, error) {
			if p.PrincipalID() != "user_2" {
				t.Fatalf("expected the request passport, got principal %q", p.PrincipalID())
			}
			if in.ListingID != "lst_1" || !in.PeriodStart.Equal(periodStart) || !in.PeriodEnd.Equal(periodEnd) {
				t.Fatalf("unexpected input: %+v", in)
			}
			return requestRef(reservation.StateRequested), nil
		},
	}
	h := NewReservationHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/reservation-requests",
		`{"listing_id":"lst_1","period_start":"2026-03-02T09:00:00Z","period_end":"2026-03-31T09:00:00Z"}`), rec)
	c.Set(middleware.PassportKey, memberPassport("user_2"))

	if err := h.Request(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp reservationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "res_1" || resp.State != "Requested" || resp.ReserverID != "user_2" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestReservationHandler_Request_PeriodEndBeforeStart(t *testing.T) {
	e := newTestEcho()
	h := NewReservationHandler(&stubReservationService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/reservation-requests",
		`{"listing_id":"lst_1","period_start":"2026-03-31T09:00:00Z","period_end":"2026-03-02T09:00:00Z"}`), rec)

	expectHTTPError(t, h.Request(c), http.StatusUnprocessableEntity)
}

func TestReservationHandler_Accept_PassesID(t *testing.T) {
	e := newTestEcho()
	stub := &stubReservationService{
		acceptFn: func(_ context.Context, _ passport.Passport, id string) (*reservation.Reference, error) {
			if id != "res_1" {
				t.Fatalf("unexpected id %q", id)
			}
			return requestRef(reservation.StateAccepted), nil
		},
	}
	h := NewReservationHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/reservation-requests/res_1/accept", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("res_1")
	c.Set(middleware.PassportKey, memberPassport("user_1"))

	if err := h.Accept(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp reservationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec.Code != http.StatusOK || resp.State != "Accepted" {
		t.Fatalf("unexpected response %d: %+v", rec.Code, resp)
	}
}

func TestReservationHandler_Close_TransitionErrorPassesThrough(t *testing.T) {
	e := newTestEcho()
	stub := &stubReservationService{
		closeFn: func(context.Context, passport.Passport, string) (*reservation.Reference, error) {
			return nil, domain.TransitionError("Cannot close a reservation request before a close was requested")
		},
	}
	h := NewReservationHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/reservation-requests/res_1/close", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("res_1")

	err := h.Close(c)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("nothing should be written on error, got %s", rec.Body.String())
	}
}

func TestReservationHandler_ListForListing_EmptyArray(t *testing.T) {
	e := newTestEcho()
	stub := &stubReservationService{
		listFn: func(_ context.Context, _ passport.Passport, listingID string) ([]reservation.Reference, error) {
			if listingID != "lst_1" {
				t.Fatalf("unexpected listing id %q", listingID)
			}
			return nil, nil
		},
	}
	h := NewReservationHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/listings/lst_1/reservation-requests", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("lst_1")

	if err := h.ListForListing(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected an empty array, got %q", body)
	}
}
