package simmap

import (
	"fmt"
	"strings"

	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// Fingerprint families.
const (
	FamilyMorgan = "morgan"
	FamilyAP     = "ap"
	FamilyTT     = "tt"
	FamilyRDK    = "rdk"
)

// Spec is the transport form of a fingerprint choice. Only the fields of the
// selected family are meaningful.
type Spec struct {
	Type   string `json:"type"`
	FPType string `json:"fp_type,omitempty"`
	NBits  int    `json:"n_bits,omitempty"`

	Radius       *int `json:"radius,omitempty"`
	UseFeatures  bool `json:"use_features,omitempty"`
	UseChirality bool `json:"use_chirality,omitempty"`

	MinLength        int  `json:"min_length,omitempty"`
	MaxLength        int  `json:"max_length,omitempty"`
	TargetSize       int  `json:"target_size,omitempty"`
	NBitsPerEntry    int  `json:"n_bits_per_entry,omitempty"`
	IncludeChirality bool `json:"include_chirality,omitempty"`

	MinPath      int `json:"min_path,omitempty"`
	MaxPath      int `json:"max_path,omitempty"`
	NBitsPerHash int `json:"n_bits_per_hash,omitempty"`
}

// DefaultSpec is Morgan radius 2 folded to 2048 bits.
func DefaultSpec() Spec { return Spec{Type: FamilyMorgan}.Normalize() }

// Morgan returns the Morgan options carried by s.
func (s Spec) Morgan() MorganOptions {
	return MorganOptions{Radius: s.Radius, FPType: s.FPType, NBits: s.NBits, UseFeatures: s.UseFeatures, UseChirality: s.UseChirality}
}

// AP returns the atom-pair options carried by s.
func (s Spec) AP() APOptions {
	return APOptions{FPType: s.FPType, NBits: s.NBits, MinLength: s.MinLength, MaxLength: s.MaxLength,
		NBitsPerEntry: s.NBitsPerEntry, IncludeChirality: s.IncludeChirality}
}

// TT returns the torsion options carried by s.
func (s Spec) TT() TTOptions {
	return TTOptions{FPType: s.FPType, NBits: s.NBits, TargetSize: s.TargetSize,
		NBitsPerEntry: s.NBitsPerEntry, IncludeChirality: s.IncludeChirality}
}

// RDK returns the path fingerprint options carried by s.
func (s Spec) RDK() RDKOptions {
	return RDKOptions{FPType: s.FPType, NBits: s.NBits, MinPath: s.MinPath, MaxPath: s.MaxPath, NBitsPerHash: s.NBitsPerHash}
}

// Normalize lower-cases the names, fills defaults and clears the fields that do
// not belong to the selected family, so equal choices compare equal.
func (s Spec) Normalize() Spec {
	t := strings.ToLower(strings.TrimSpace(s.Type))
	if t == "" {
		t = FamilyMorgan
	}
	s.FPType = strings.ToLower(strings.TrimSpace(s.FPType))
	switch t {
	case FamilyMorgan:
		o := s.Morgan().withDefaults()
		return Spec{Type: t, FPType: o.FPType, NBits: o.NBits, Radius: o.Radius, UseFeatures: o.UseFeatures, UseChirality: o.UseChirality}
	case FamilyAP:
		o := s.AP().withDefaults()
		return Spec{Type: t, FPType: o.FPType, NBits: o.NBits, MinLength: o.MinLength, MaxLength: o.MaxLength,
			NBitsPerEntry: o.NBitsPerEntry, IncludeChirality: o.IncludeChirality}
	case FamilyTT:
		o := s.TT().withDefaults()
		return Spec{Type: t, FPType: o.FPType, NBits: o.NBits, TargetSize: o.TargetSize,
			NBitsPerEntry: o.NBitsPerEntry, IncludeChirality: o.IncludeChirality}
	case FamilyRDK:
		o := s.RDK().withDefaults()
		return Spec{Type: t, FPType: o.FPType, NBits: o.NBits, MinPath: o.MinPath, MaxPath: o.MaxPath, NBitsPerHash: o.NBitsPerHash}
	}
	s.Type = t
	return s
}

// Validate checks the normalized form of s.
func (s Spec) Validate() error {
	n := s.Normalize()
	switch n.Type {
	case FamilyMorgan:
		return n.Morgan().validate()
	case FamilyAP:
		return n.AP().validate()
	case FamilyTT:
		return n.TT().validate()
	case FamilyRDK:
		return n.RDK().validate()
	}
	return errors.New(errors.ErrCodeFingerprintTypeUnsupported, "unsupported fingerprint family").
		WithDetailf("family %q; expected one of morgan, ap, tt, rdk", s.Type)
}

// Func returns the fingerprint function described by s, backed by f.
// A nil f uses the process-wide Fingerprinter.
func (s Spec) Func(f *Fingerprinter) (FingerprintFunc, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if f == nil {
		f = defaultFingerprinter
	}
	n := s.Normalize()
	switch n.Type {
	case FamilyMorgan:
		return f.MorganFunc(n.Morgan()), nil
	case FamilyAP:
		return f.AtomPairsFunc(n.AP()), nil
	case FamilyTT:
		return f.TorsionsFunc(n.TT()), nil
	default:
		return f.RDKFunc(n.RDK()), nil
	}
}

// String renders the normalized spec compactly, e.g. "morgan:bv:r2:2048".
func (s Spec) String() string {
	n := s.Normalize()
	switch n.Type {
	case FamilyMorgan:
		out := fmt.Sprintf("morgan:%s:r%d:%d", n.FPType, n.Morgan().RadiusOrDefault(), n.NBits)
		if n.UseFeatures {
			out += ":features"
		}
		if n.UseChirality {
			out += ":chiral"
		}
		return out
	case FamilyAP, FamilyTT:
		out := fmt.Sprintf("%s:%s:%d", n.Type, n.FPType, n.NBits)
		if n.Type == FamilyAP {
			out += fmt.Sprintf(":l%d-%d", n.MinLength, n.MaxLength)
		} else {
			out += fmt.Sprintf(":t%d", n.TargetSize)
		}
		if n.FPType == FPTypeBitVect {
			out += fmt.Sprintf(":e%d", n.NBitsPerEntry)
		}
		if n.IncludeChirality {
			out += ":chiral"
		}
		return out
	case FamilyRDK:
		return fmt.Sprintf("rdk:%s:%d:p%d-%d:h%d", n.FPType, n.NBits, n.MinPath, n.MaxPath, n.NBitsPerHash)
	}
	return n.Type
}

//Personal.AI order the ending
