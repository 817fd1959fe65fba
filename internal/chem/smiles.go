package chem

import (
	"strings"
	"unicode"

	apperrors "github.com/sj-huang/rdkit-m/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Public entry points
// ─────────────────────────────────────────────────────────────────────────────

// ParseSMILES reads a SMILES string into a perceived Molecule.
//
// Supported: the organic subset, aromatic lowercase atoms, bracket atoms
// ([isotope]symbol[@|@@][Hn][charge][:class]), bond symbols - = # : / \,
// branches, ring closures (single digits and %nn) and '.' separated fragments.
//
// An empty string returns MOL_002. Every other malformed input returns MOL_001
// with the byte offset in the error detail.
func ParseSMILES(smiles string) (*Molecule, error) {
	s := strings.TrimSpace(smiles)
	if s == "" {
		return nil, apperrors.New(apperrors.ErrCodeMoleculeEmpty, "SMILES string is empty")
	}

	p := &smilesParser{src: s, prev: -1, rings: make(map[int]*ringOpening)}
	if err := p.parse(); err != nil {
		return nil, err
	}

	mol := p.molecule(smiles)
	if err := perceive(mol); err != nil {
		return nil, err
	}
	return mol, nil
}

// MolFromSmiles returns nil for malformed input instead of an error.
func MolFromSmiles(smiles string) *Molecule {
	mol, err := ParseSMILES(smiles)
	if err != nil {
		return nil
	}
	return mol
}

// MustParseSMILES panics on malformed input. Intended for tests and fixtures.
func MustParseSMILES(smiles string) *Molecule {
	mol, err := ParseSMILES(smiles)
	if err != nil {
		panic(err)
	}
	return mol
}

// ─────────────────────────────────────────────────────────────────────────────
// Parser
// ─────────────────────────────────────────────────────────────────────────────

type ringOpening struct {
	atom int
	// slot is the position reserved in the opener's stereo order.
	slot int
	bond BondType
	dir  BondDir
	pos  int
}

type smilesParser struct {
	src string
	pos int

	atoms []Atom
	bonds []Bond
	adj   [][]Neighbor
	order [][]int

	prev        int
	pendingBond BondType
	pendingDir  BondDir
	pendingPos  int
	branches    []int
	rings       map[int]*ringOpening
}

func (p *smilesParser) errorf(pos int, format string, args ...interface{}) error {
	return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "invalid SMILES").
		WithDetailf("position %d: "+format, append([]interface{}{pos}, args...)...)
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return p.errorf(p.pos, "branch opened without a preceding atom")
			}
			if p.pendingBond != 0 || p.pendingDir != BondDirNone {
				return p.errorf(p.pos, "bond symbol before branch")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++

		case ch == ')':
			if len(p.branches) == 0 {
				return p.errorf(p.pos, "unbalanced ')'")
			}
			if p.pendingBond != 0 || p.pendingDir != BondDirNone {
				return p.errorf(p.pendingPos, "dangling bond")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++

		case ch == '.':
			if p.pendingBond != 0 || p.pendingDir != BondDirNone {
				return p.errorf(p.pendingPos, "dangling bond")
			}
			if len(p.branches) > 0 {
				return p.errorf(p.pos, "'.' inside a branch")
			}
			p.prev = -1
			p.pos++

		case ch == '-', ch == '=', ch == '#', ch == ':', ch == '/', ch == '\\':
			if p.pendingBond != 0 || p.pendingDir != BondDirNone {
				return p.errorf(p.pos, "consecutive bond symbols")
			}
			if p.prev < 0 {
				return p.errorf(p.pos, "bond symbol without a preceding atom")
			}
			p.pendingPos = p.pos
			switch ch {
			case '-':
				p.pendingBond = BondSingle
			case '=':
				p.pendingBond = BondDouble
			case '#':
				p.pendingBond = BondTriple
			case ':':
				p.pendingBond = BondAromatic
			case '/':
				p.pendingBond, p.pendingDir = BondSingle, BondDirUp
			case '\\':
				p.pendingBond, p.pendingDir = BondSingle, BondDirDown
			}
			p.pos++

		case ch == '%' || (ch >= '0' && ch <= '9'):
			if err := p.ringClosure(); err != nil {
				return err
			}

		case ch == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}

		default:
			if err := p.organicAtom(); err != nil {
				return err
			}
		}
	}

	if p.pendingBond != 0 || p.pendingDir != BondDirNone {
		return p.errorf(p.pendingPos, "dangling bond at end of input")
	}
	if len(p.branches) > 0 {
		return p.errorf(len(p.src), "unclosed branch")
	}
	for num, r := range p.rings {
		return p.errorf(r.pos, "unclosed ring %d", num)
	}
	if len(p.atoms) == 0 {
		return apperrors.New(apperrors.ErrCodeMoleculeEmpty, "SMILES contains no atoms")
	}
	return nil
}

func (p *smilesParser) organicAtom() error {
	start := p.pos
	rest := p.src[p.pos:]

	var sym string
	aromatic := false
	switch {
	case strings.HasPrefix(rest, "Cl"), strings.HasPrefix(rest, "Br"):
		sym = rest[:2]
	case len(rest) > 0 && organicSubset[rest[:1]]:
		sym = rest[:1]
	case len(rest) > 0 && isOrganicAromatic(rest[0]):
		sym = aromaticSymbols[rest[:1]]
		aromatic = true
	default:
		return p.errorf(start, "unexpected character %q", rest[0])
	}
	p.pos += len(sym)

	z, _ := AtomicNumber(sym)
	return p.addAtom(Atom{Symbol: sym, AtomicNum: z, Aromatic: aromatic}, false)
}

func isOrganicAromatic(c byte) bool {
	switch c {
	case 'b', 'c', 'n', 'o', 'p', 's':
		return true
	}
	return false
}

func (p *smilesParser) bracketAtom() error {
	start := p.pos
	end := strings.IndexByte(p.src[start:], ']')
	if end < 0 {
		return p.errorf(start, "unclosed bracket atom")
	}
	body := p.src[start+1 : start+end]
	p.pos = start + end + 1

	atom := Atom{Bracket: true}
	i := 0
	digits := func() (int, bool) {
		j := i
		n := 0
		for j < len(body) && body[j] >= '0' && body[j] <= '9' {
			n = n*10 + int(body[j]-'0')
			j++
		}
		ok := j > i
		i = j
		return n, ok
	}

	// isotope
	if iso, ok := digits(); ok {
		atom.Isotope = iso
	}

	// symbol
	if i >= len(body) {
		return p.errorf(start, "bracket atom without element")
	}
	switch {
	case body[i] == '*':
		atom.Symbol = "*"
		i++
	case unicode.IsLower(rune(body[i])):
		matched := false
		for _, cand := range []string{"se", "as", "te"} {
			if strings.HasPrefix(body[i:], cand) {
				atom.Symbol, atom.Aromatic = aromaticSymbols[cand], true
				i += len(cand)
				matched = true
				break
			}
		}
		if !matched {
			if !isOrganicAromatic(body[i]) {
				return p.errorf(start+1+i, "unknown aromatic symbol %q", body[i])
			}
			atom.Symbol, atom.Aromatic = aromaticSymbols[body[i:i+1]], true
			i++
		}
	case unicode.IsUpper(rune(body[i])):
		if i+1 < len(body) && unicode.IsLower(rune(body[i+1])) {
			if _, ok := AtomicNumber(body[i : i+2]); ok {
				atom.Symbol = body[i : i+2]
				i += 2
				break
			}
		}
		if _, ok := AtomicNumber(body[i : i+1]); !ok {
			return apperrors.New(apperrors.ErrCodeMoleculeUnsupportedElement, "unsupported element").
				WithDetailf("position %d: %q", start+1+i, body[i:])
		}
		atom.Symbol = body[i : i+1]
		i++
	default:
		return p.errorf(start+1+i, "unexpected character %q in bracket atom", body[i])
	}
	atom.AtomicNum, _ = AtomicNumber(atom.Symbol)

	// chirality
	if i < len(body) && body[i] == '@' {
		atom.Chiral = ChiralCCW
		i++
		if i < len(body) && body[i] == '@' {
			atom.Chiral = ChiralCW
			i++
		}
		if i+1 < len(body) && unicode.IsUpper(rune(body[i])) && unicode.IsUpper(rune(body[i+1])) {
			return p.errorf(start+1+i, "unsupported chirality class %q", body[i:i+2])
		}
	}

	// hydrogens
	if i < len(body) && body[i] == 'H' {
		i++
		atom.ExplicitHs = 1
		if n, ok := digits(); ok {
			atom.ExplicitHs = n
		}
	}

	// charge
	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		c := body[i]
		i++
		if n, ok := digits(); ok {
			atom.Charge = sign * n
		} else {
			mag := 1
			for i < len(body) && body[i] == c {
				mag++
				i++
			}
			atom.Charge = sign * mag
		}
	}

	// atom class
	if i < len(body) && body[i] == ':' {
		i++
		n, ok := digits()
		if !ok {
			return p.errorf(start+1+i, "atom class without digits")
		}
		atom.Class = n
	}

	if i != len(body) {
		return p.errorf(start+1+i, "unexpected %q in bracket atom", body[i:])
	}
	return p.addAtom(atom, atom.ExplicitHs > 0)
}

// addAtom appends atom and bonds it to the previous atom.
func (p *smilesParser) addAtom(atom Atom, bracketH bool) error {
	idx := len(p.atoms)
	atom.Index = idx
	p.atoms = append(p.atoms, atom)
	p.adj = append(p.adj, nil)
	p.order = append(p.order, nil)

	if p.prev >= 0 {
		p.order[idx] = append(p.order[idx], p.prev)
	}
	if bracketH {
		p.order[idx] = append(p.order[idx], -1)
	}

	if p.prev >= 0 {
		if err := p.addBond(p.prev, idx, p.pendingBond, p.pendingDir, p.pendingPos); err != nil {
			return err
		}
		p.order[p.prev] = append(p.order[p.prev], idx)
	}
	p.pendingBond, p.pendingDir = 0, BondDirNone
	p.prev = idx
	return nil
}

func (p *smilesParser) addBond(a, b int, t BondType, dir BondDir, pos int) error {
	if a == b {
		return p.errorf(pos, "atom bonded to itself")
	}
	for _, nb := range p.adj[a] {
		if nb.Atom == b {
			return p.errorf(pos, "duplicate bond between atoms %d and %d", a, b)
		}
	}
	if t == 0 {
		t = BondSingle
		if p.atoms[a].Aromatic && p.atoms[b].Aromatic {
			t = BondAromatic
		}
	}
	idx := len(p.bonds)
	p.bonds = append(p.bonds, Bond{Index: idx, Begin: a, End: b, Type: t, Dir: dir})
	p.adj[a] = append(p.adj[a], Neighbor{Atom: b, Bond: idx})
	p.adj[b] = append(p.adj[b], Neighbor{Atom: a, Bond: idx})
	return nil
}

func (p *smilesParser) ringClosure() error {
	start := p.pos
	if p.prev < 0 {
		return p.errorf(start, "ring closure without a preceding atom")
	}

	var num int
	if p.src[p.pos] == '%' {
		if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
			return p.errorf(start, "'%%' must be followed by two digits")
		}
		num = int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
		p.pos += 3
	} else {
		num = int(p.src[p.pos] - '0')
		p.pos++
	}

	bt, dir, bpos := p.pendingBond, p.pendingDir, p.pendingPos
	p.pendingBond, p.pendingDir = 0, BondDirNone
	if bt == 0 {
		bpos = start
	}

	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = &ringOpening{
			atom: p.prev,
			slot: len(p.order[p.prev]),
			bond: bt,
			dir:  dir,
			pos:  start,
		}
		p.order[p.prev] = append(p.order[p.prev], 0)
		return nil
	}
	delete(p.rings, num)

	switch {
	case bt == 0:
		bt, dir = open.bond, open.dir
	case open.bond != 0 && open.bond != bt:
		return p.errorf(bpos, "conflicting bond types for ring %d", num)
	}
	if err := p.addBond(open.atom, p.prev, bt, dir, bpos); err != nil {
		return err
	}
	p.order[open.atom][open.slot] = p.prev
	p.order[p.prev] = append(p.order[p.prev], open.atom)
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *smilesParser) molecule(smiles string) *Molecule {
	return &Molecule{
		smiles:      smiles,
		atoms:       p.atoms,
		bonds:       p.bonds,
		adj:         p.adj,
		stereoOrder: p.order,
	}
}

//Personal.AI order the ending
