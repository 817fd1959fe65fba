package chem

// FeatureFlag is a pharmacophoric atom class used by feature Morgan invariants.
type FeatureFlag uint32

const (
	FeatureDonor FeatureFlag = 1 << iota
	FeatureAcceptor
	FeatureAromatic
	FeatureHalogen
	FeatureBasic
	FeatureAcidic
)

// Has reports whether every bit of f2 is set in f.
func (f FeatureFlag) Has(f2 FeatureFlag) bool { return f&f2 == f2 }

// FeatureFlags returns the pharmacophoric flags of every atom.
func (m *Molecule) FeatureFlags() []FeatureFlag {
	out := make([]FeatureFlag, len(m.atoms))
	for i := range m.atoms {
		out[i] = m.featureFlags(i)
	}
	return out
}

func (m *Molecule) featureFlags(i int) FeatureFlag {
	a := m.atoms[i]
	var f FeatureFlag

	switch a.AtomicNum {
	case 7, 8, 16:
		if a.TotalHs() > 0 && a.Charge >= 0 {
			f |= FeatureDonor
		}
	}
	if m.isAcceptor(i) {
		f |= FeatureAcceptor
	}
	if a.Aromatic {
		f |= FeatureAromatic
	}
	if IsHalogen(a.AtomicNum) {
		f |= FeatureHalogen
	}
	if m.isBasic(i) {
		f |= FeatureBasic
	}
	if m.isAcidic(i) {
		f |= FeatureAcidic
	}
	return f
}

func (m *Molecule) isAcceptor(i int) bool {
	a := m.atoms[i]
	switch a.AtomicNum {
	case 8:
		return a.Charge <= 0
	case 7:
		if a.Charge != 0 {
			return false
		}
		if a.Aromatic {
			return a.TotalHs() == 0 && m.Degree(i) == 2
		}
		if m.ValenceSum(i)+a.TotalHs() != 3 {
			return false
		}
		for _, nb := range m.adj[i] {
			if m.hasDoubleBondToHetero(nb.Atom) {
				return false
			}
		}
		return true
	}
	return false
}

func (m *Molecule) hasDoubleBondToHetero(i int) bool {
	for _, nb := range m.adj[i] {
		if m.bonds[nb.Bond].Type != BondDouble {
			continue
		}
		switch m.atoms[nb.Atom].AtomicNum {
		case 7, 8, 15, 16:
			return true
		}
	}
	return false
}

func (m *Molecule) isBasic(i int) bool {
	a := m.atoms[i]
	if a.AtomicNum != 7 || a.Aromatic {
		return false
	}
	if a.Charge > 0 {
		return true
	}
	if a.Charge != 0 || len(m.adj[i]) == 0 {
		return false
	}
	for _, nb := range m.adj[i] {
		if m.bonds[nb.Bond].Type != BondSingle {
			return false
		}
		if !m.isSP3Carbon(nb.Atom) {
			return false
		}
	}
	return true
}

func (m *Molecule) isSP3Carbon(i int) bool {
	a := m.atoms[i]
	if a.AtomicNum != 6 || a.Aromatic {
		return false
	}
	for _, nb := range m.adj[i] {
		if m.bonds[nb.Bond].Type != BondSingle {
			return false
		}
	}
	return true
}

func (m *Molecule) isAcidic(i int) bool {
	a := m.atoms[i]
	if a.AtomicNum != 6 && a.AtomicNum != 16 {
		return false
	}
	doubleOK, hydroxyl := false, false
	for _, nb := range m.adj[i] {
		o := m.atoms[nb.Atom]
		switch m.bonds[nb.Bond].Type {
		case BondDouble:
			switch o.AtomicNum {
			case 8, 15, 16:
				doubleOK = true
			}
		case BondSingle:
			if o.AtomicNum == 8 && (o.TotalHs() == 1 || o.Charge == -1) {
				hydroxyl = true
			}
		}
	}
	return doubleOK && hydroxyl
}

//Personal.AI order the ending
