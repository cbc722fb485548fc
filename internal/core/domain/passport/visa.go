package passport

// Visa is an authorization handle bound to one aggregate instance. Its answers
// are a pure function of the snapshot resolved when it was minted.
type Visa interface {
	HasCapability(c Capability) bool
}

// AllOf reports whether v grants every capability in caps.
func AllOf(v Visa, caps ...Capability) bool {
	for _, c := range caps {
		if !v.HasCapability(c) {
			return false
		}
	}
	return true
}

// AnyOf reports whether v grants at least one capability in caps.
func AnyOf(v Visa, caps ...Capability) bool {
	for _, c := range caps {
		if v.HasCapability(c) {
			return true
		}
	}
	return false
}

type grantSet interface {
	Grants(c Capability) bool
}

type allowAll struct{}

func (allowAll) HasCapability(Capability) bool { return true }

type denyAll struct{}

func (denyAll) HasCapability(Capability) bool { return false }

// resolved holds a per-context permission struct by value.
type resolved struct {
	set grantSet
}

func (v resolved) HasCapability(c Capability) bool {
	return v.set.Grants(c)
}

// AllowAll returns a visa that grants everything. Intended for tests and for
// System passports.
func AllowAll() Visa { return allowAll{} }

// DenyAll returns a visa that grants nothing.
func DenyAll() Visa { return denyAll{} }
