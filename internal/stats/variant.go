package stats

import (
	"fmt"
	"strings"
)

// Role marks a variant as the control or a treatment.
type Role string

const (
	RoleControl   Role = "control"
	RoleTreatment Role = "treatment"
)

// Variant is one arm of an experiment.
type Variant struct {
	Name        string `json:"name"`
	Visitors    int    `json:"visitors"`
	Conversions int    `json:"conversions"`
	Role        Role   `json:"role,omitempty"`
}

// Rate returns conversions / visitors. Callers validate first; a variant
// with no visitors has rate 0.
func (v Variant) Rate() float64 {
	if v.Visitors == 0 {
		return 0
	}
	return float64(v.Conversions) / float64(v.Visitors)
}

// Validate checks the variant's own constraints.
func (v Variant) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("%w: variant name must not be empty", ErrInvalidInput)
	}
	if v.Visitors <= 0 {
		return fmt.Errorf("%w: variant %q: visitors must be > 0, got %d", ErrInvalidInput, v.Name, v.Visitors)
	}
	if v.Conversions < 0 || v.Conversions > v.Visitors {
		return fmt.Errorf("%w: variant %q: conversions must be in [0, %d], got %d", ErrInvalidInput, v.Name, v.Visitors, v.Conversions)
	}
	return nil
}

// VariantSet is an immutable control plus one or more treatments.
// The zero value is not usable; build one with NewVariantSet or
// VariantSetFromVariants.
type VariantSet struct {
	variants []Variant
}

// NewVariantSet stamps control with RoleControl and every treatment with
// RoleTreatment, then validates the result.
func NewVariantSet(control Variant, treatments ...Variant) (VariantSet, error) {
	vs := make([]Variant, 0, len(treatments)+1)
	control.Role = RoleControl
	vs = append(vs, control)
	for _, t := range treatments {
		t.Role = RoleTreatment
		vs = append(vs, t)
	}
	return build(vs)
}

// VariantSetFromVariants builds a set from variants that already carry
// their roles. Exactly one must be the control; variants with no role are
// treatments.
func VariantSetFromVariants(variants []Variant) (VariantSet, error) {
	var control *Variant
	treatments := make([]Variant, 0, len(variants))
	for i := range variants {
		v := variants[i]
		switch v.Role {
		case RoleControl:
			if control != nil {
				return VariantSet{}, fmt.Errorf("%w: more than one control variant (%q, %q)", ErrInvalidInput, control.Name, v.Name)
			}
			control = &v
		case RoleTreatment, "":
			v.Role = RoleTreatment
			treatments = append(treatments, v)
		default:
			return VariantSet{}, fmt.Errorf("%w: variant %q has unknown role %q", ErrInvalidInput, v.Name, v.Role)
		}
	}
	if control == nil {
		return VariantSet{}, fmt.Errorf("%w: no control variant", ErrInvalidInput)
	}
	return NewVariantSet(*control, treatments...)
}

func build(vs []Variant) (VariantSet, error) {
	if len(vs) < 2 {
		return VariantSet{}, fmt.Errorf("%w: need at least 2 variants, got %d", ErrInvalidInput, len(vs))
	}
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		if err := v.Validate(); err != nil {
			return VariantSet{}, err
		}
		if _, dup := seen[v.Name]; dup {
			return VariantSet{}, fmt.Errorf("%w: duplicate variant name %q", ErrInvalidInput, v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return VariantSet{variants: vs}, nil
}

// Len returns the number of variants, control included.
func (s VariantSet) Len() int {
	return len(s.variants)
}

// Control returns the control variant.
func (s VariantSet) Control() Variant {
	return s.variants[0]
}

// Treatments returns a copy of the treatment variants in order.
func (s VariantSet) Treatments() []Variant {
	out := make([]Variant, len(s.variants)-1)
	copy(out, s.variants[1:])
	return out
}

// Variants returns a copy of all variants, control first.
func (s VariantSet) Variants() []Variant {
	out := make([]Variant, len(s.variants))
	copy(out, s.variants)
	return out
}

// Lookup finds a variant by name.
func (s VariantSet) Lookup(name string) (Variant, bool) {
	for _, v := range s.variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// WithTreatment returns a new set with t appended as a treatment.
func (s VariantSet) WithTreatment(t Variant) (VariantSet, error) {
	return NewVariantSet(s.Control(), append(s.Treatments(), t)...)
}

// WithoutVariant returns a new set without the named treatment. The
// control cannot be removed, and a set never drops below two variants.
func (s VariantSet) WithoutVariant(name string) (VariantSet, error) {
	if s.Control().Name == name {
		return VariantSet{}, fmt.Errorf("%w: cannot remove control variant %q", ErrInvalidInput, name)
	}
	treatments := s.Treatments()
	kept := treatments[:0]
	found := false
	for _, t := range treatments {
		if t.Name == name {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return VariantSet{}, fmt.Errorf("%w: no variant named %q", ErrInvalidInput, name)
	}
	return NewVariantSet(s.Control(), kept...)
}

// ReplaceVariant returns a new set where the variant named name is
// replaced by v. The replaced variant keeps its role.
func (s VariantSet) ReplaceVariant(name string, v Variant) (VariantSet, error) {
	vs := s.Variants()
	for i := range vs {
		if vs[i].Name == name {
			v.Role = vs[i].Role
			vs[i] = v
			return NewVariantSet(vs[0], vs[1:]...)
		}
	}
	return VariantSet{}, fmt.Errorf("%w: no variant named %q", ErrInvalidInput, name)
}

// DefaultVariantName returns the name given to the n-th treatment when
// the user does not supply one: Variation A, Variation B, ...
func DefaultVariantName(n int) string {
	if n < 26 {
		return fmt.Sprintf("Variation %c", 'A'+rune(n))
	}
	return fmt.Sprintf("Variation %d", n+1)
}
