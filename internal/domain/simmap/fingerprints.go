package simmap

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"

	"github.com/sj-huang/rdkit-m/internal/chem"
	"github.com/sj-huang/rdkit-m/internal/chem/fingerprint"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// FingerprintFunc returns the fingerprint of mol. atomID == -1 asks for the
// full fingerprint; 0 <= atomID < NumAtoms asks for the fingerprint with that
// atom's contributions removed. Implementations must be safe for concurrent use.
type FingerprintFunc func(mol *chem.Molecule, atomID int) (fingerprint.Fingerprint, error)

// Fingerprint representations.
const (
	FPTypeBitVect = "bv"
	FPTypeCount   = "count"
	FPTypeNormal  = "normal"
	FPTypeHashed  = "hashed"
)

// Defaults of the fingerprint getters.
const (
	DefaultNBits         = 2048
	DefaultMorganRadius  = 2
	DefaultMinLength     = 1
	DefaultMaxLength     = 30
	DefaultNBitsPerEntry = 4
	DefaultTargetSize    = 4
	DefaultMinPath       = 1
	DefaultMaxPath       = 5
	DefaultNBitsPerHash  = 2

	defaultInfoCacheSize = 256
	defaultInfoCacheTTL  = 10 * time.Minute
)

// Upper bounds of the fingerprint parameters.
const (
	MaxNBits         = 1 << 20
	MaxMorganRadius  = 8
	MaxPairLength    = 64
	MaxTargetSize    = 8
	MaxPathBonds     = 10
	MaxNBitsPerEntry = 16
	MaxNBitsPerHash  = 16
)

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

// MorganOptions selects a circular fingerprint. Zero fields take the defaults
// "bv" and 2048 bits; a nil Radius takes radius 2.
type MorganOptions struct {
	// Radius 0 keeps the atom invariants only.
	Radius       *int   `json:"radius,omitempty"`
	FPType       string `json:"fp_type,omitempty"` // "bv" | "count"
	NBits        int    `json:"n_bits,omitempty"`
	UseFeatures  bool   `json:"use_features,omitempty"`
	UseChirality bool   `json:"use_chirality,omitempty"`
}

// RadiusOrDefault returns the requested radius, or the default when unset.
func (o MorganOptions) RadiusOrDefault() int {
	if o.Radius == nil {
		return DefaultMorganRadius
	}
	return *o.Radius
}

func (o MorganOptions) withDefaults() MorganOptions {
	if o.Radius == nil {
		o.Radius = lo.ToPtr(DefaultMorganRadius)
	}
	if o.FPType == "" {
		o.FPType = FPTypeBitVect
	}
	if o.NBits <= 0 {
		o.NBits = DefaultNBits
	}
	return o
}

func (o MorganOptions) validate() error {
	switch o.FPType {
	case FPTypeBitVect, FPTypeCount:
	default:
		return unsupportedFPType("morgan", o.FPType, FPTypeBitVect, FPTypeCount)
	}
	if err := checkRange("morgan", "radius", o.RadiusOrDefault(), 0, MaxMorganRadius); err != nil {
		return err
	}
	return checkRange("morgan", "n_bits", o.NBits, 1, MaxNBits)
}

// APOptions selects an atom-pair fingerprint. Zero fields take the defaults
// "normal", 2048 bits, lengths 1..30 and four bits per entry.
type APOptions struct {
	FPType           string `json:"fp_type,omitempty"` // "normal" | "hashed" | "bv"
	NBits            int    `json:"n_bits,omitempty"`
	MinLength        int    `json:"min_length,omitempty"`
	MaxLength        int    `json:"max_length,omitempty"`
	NBitsPerEntry    int    `json:"n_bits_per_entry,omitempty"`
	IncludeChirality bool   `json:"include_chirality,omitempty"`
}

func (o APOptions) withDefaults() APOptions {
	if o.FPType == "" {
		o.FPType = FPTypeNormal
	}
	if o.NBits <= 0 {
		o.NBits = DefaultNBits
	}
	if o.MinLength <= 0 {
		o.MinLength = DefaultMinLength
	}
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	if o.NBitsPerEntry <= 0 {
		o.NBitsPerEntry = DefaultNBitsPerEntry
	}
	return o
}

func (o APOptions) validate() error {
	switch o.FPType {
	case FPTypeNormal, FPTypeHashed, FPTypeBitVect:
	default:
		return unsupportedFPType("atom pair", o.FPType, FPTypeNormal, FPTypeHashed, FPTypeBitVect)
	}
	if o.MaxLength < o.MinLength {
		return errors.New(errors.ErrCodeValidation, "invalid atom pair options").
			WithDetailf("max_length %d < min_length %d", o.MaxLength, o.MinLength)
	}
	return firstErr(
		checkRange("atom pair", "n_bits", o.NBits, 1, MaxNBits),
		checkRange("atom pair", "max_length", o.MaxLength, 1, MaxPairLength),
		checkRange("atom pair", "n_bits_per_entry", o.NBitsPerEntry, 1, MaxNBitsPerEntry),
	)
}

// TTOptions selects a topological torsion fingerprint. Zero fields take the
// defaults "normal", 2048 bits, four atoms and four bits per entry.
type TTOptions struct {
	FPType           string `json:"fp_type,omitempty"` // "normal" | "hashed" | "bv"
	NBits            int    `json:"n_bits,omitempty"`
	TargetSize       int    `json:"target_size,omitempty"`
	NBitsPerEntry    int    `json:"n_bits_per_entry,omitempty"`
	IncludeChirality bool   `json:"include_chirality,omitempty"`
}

func (o TTOptions) withDefaults() TTOptions {
	if o.FPType == "" {
		o.FPType = FPTypeNormal
	}
	if o.NBits <= 0 {
		o.NBits = DefaultNBits
	}
	if o.TargetSize <= 0 {
		o.TargetSize = DefaultTargetSize
	}
	if o.NBitsPerEntry <= 0 {
		o.NBitsPerEntry = DefaultNBitsPerEntry
	}
	return o
}

func (o TTOptions) validate() error {
	switch o.FPType {
	case FPTypeNormal, FPTypeHashed, FPTypeBitVect:
	default:
		return unsupportedFPType("torsion", o.FPType, FPTypeNormal, FPTypeHashed, FPTypeBitVect)
	}
	return firstErr(
		checkRange("torsion", "n_bits", o.NBits, 1, MaxNBits),
		checkRange("torsion", "target_size", o.TargetSize, 2, MaxTargetSize),
		checkRange("torsion", "n_bits_per_entry", o.NBitsPerEntry, 1, MaxNBitsPerEntry),
	)
}

// RDKOptions selects a path fingerprint. Zero fields take the defaults "bv",
// 2048 bits, paths of 1..5 bonds and two bits per path.
type RDKOptions struct {
	FPType       string `json:"fp_type,omitempty"` // "bv"
	NBits        int    `json:"n_bits,omitempty"`
	MinPath      int    `json:"min_path,omitempty"`
	MaxPath      int    `json:"max_path,omitempty"`
	NBitsPerHash int    `json:"n_bits_per_hash,omitempty"`
}

func (o RDKOptions) withDefaults() RDKOptions {
	if o.FPType == "" {
		o.FPType = FPTypeBitVect
	}
	if o.NBits <= 0 {
		o.NBits = DefaultNBits
	}
	if o.MinPath <= 0 {
		o.MinPath = DefaultMinPath
	}
	if o.MaxPath <= 0 {
		o.MaxPath = DefaultMaxPath
	}
	if o.NBitsPerHash <= 0 {
		o.NBitsPerHash = DefaultNBitsPerHash
	}
	return o
}

func (o RDKOptions) validate() error {
	if o.FPType != FPTypeBitVect {
		return unsupportedFPType("rdk", o.FPType, FPTypeBitVect)
	}
	if o.MaxPath < o.MinPath {
		return errors.New(errors.ErrCodeValidation, "invalid rdk options").
			WithDetailf("max_path %d < min_path %d", o.MaxPath, o.MinPath)
	}
	return firstErr(
		checkRange("rdk", "n_bits", o.NBits, 1, MaxNBits),
		checkRange("rdk", "max_path", o.MaxPath, 1, MaxPathBonds),
		checkRange("rdk", "n_bits_per_hash", o.NBitsPerHash, 1, MaxNBitsPerHash),
	)
}

func checkRange(family, name string, v, min, max int) error {
	if v < min || v > max {
		return errors.New(errors.ErrCodeValidation, "invalid "+family+" options").
			WithDetailf("%s %d outside [%d, %d]", name, v, min, max)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func unsupportedFPType(family, got string, want ...string) error {
	return errors.New(errors.ErrCodeFingerprintTypeUnsupported, "unsupported fingerprint type").
		WithDetailf("%s fingerprint type %q; expected one of %v", family, got, want)
}

func checkAtomID(mol *chem.Molecule, atomID int) error {
	if mol == nil || mol.NumAtoms() == 0 {
		return errors.New(errors.ErrCodeMoleculeEmpty, "molecule has no atoms")
	}
	if atomID < -1 || atomID >= mol.NumAtoms() {
		return errors.New(errors.ErrCodeAtomIndexOutOfRange, "atom index out of range").
			WithDetailf("atom %d, molecule has %d atoms", atomID, mol.NumAtoms())
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fingerprinter
// ─────────────────────────────────────────────────────────────────────────────

type morganKey struct {
	mol          *chem.Molecule
	radius       int
	fpType       string
	nBits        int
	useFeatures  bool
	useChirality bool
}

type morganInfo struct {
	bv       *fingerprint.BitVect
	counts   *fingerprint.SparseIntVect
	bitInfo  fingerprint.BitInfo
	atomBits [][]uint32
}

type rdkKey struct {
	mol  *chem.Molecule
	opts RDKOptions
}

type rdkInfo struct {
	fp       *fingerprint.BitVect
	atomBits [][]uint
}

// Fingerprinter computes fingerprints with and without single atoms. Morgan
// and RDK full fingerprints, with the bits owned by each atom, are kept in
// expiring LRU caches so the per-atom calls of a weights computation reuse them.
type Fingerprinter struct {
	morgan *expirable.LRU[morganKey, *morganInfo]
	rdk    *expirable.LRU[rdkKey, *rdkInfo]
}

// NewFingerprinter returns a Fingerprinter whose caches hold size molecules
// for at most ttl. Non-positive values take the defaults.
func NewFingerprinter(size int, ttl time.Duration) *Fingerprinter {
	if size <= 0 {
		size = defaultInfoCacheSize
	}
	if ttl <= 0 {
		ttl = defaultInfoCacheTTL
	}
	return &Fingerprinter{
		morgan: expirable.NewLRU[morganKey, *morganInfo](size, nil, ttl),
		rdk:    expirable.NewLRU[rdkKey, *rdkInfo](size, nil, ttl),
	}
}

var defaultFingerprinter = NewFingerprinter(defaultInfoCacheSize, defaultInfoCacheTTL)

// DefaultFingerprinter returns the process-wide Fingerprinter used by the
// package-level getters.
func DefaultFingerprinter() *Fingerprinter { return defaultFingerprinter }

// Purge drops every cached entry.
func (f *Fingerprinter) Purge() {
	f.morgan.Purge()
	f.rdk.Purge()
}

// ── Morgan ──────────────────────────────────────────────────────────────────

// Morgan returns the Morgan fingerprint of mol, without atomID when atomID >= 0.
func (f *Fingerprinter) Morgan(mol *chem.Molecule, atomID int, opts MorganOptions) (fingerprint.Fingerprint, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkAtomID(mol, atomID); err != nil {
		return nil, err
	}

	info := f.morganInfo(mol, opts)
	if opts.FPType == FPTypeBitVect {
		if atomID < 0 {
			return info.bv.Clone(), nil
		}
		mask := fingerprint.NewBitVect(uint(opts.NBits))
		for _, bit := range info.atomBits[atomID] {
			mask.Set(uint(bit))
		}
		return info.bv.AndNot(mask), nil
	}

	fp := info.counts.Clone()
	if atomID >= 0 {
		for _, bit := range info.atomBits[atomID] {
			fp.Add(uint64(bit), -1)
		}
	}
	return fp, nil
}

func (f *Fingerprinter) morganInfo(mol *chem.Molecule, opts MorganOptions) *morganInfo {
	key := morganKey{
		mol:          mol,
		radius:       opts.RadiusOrDefault(),
		fpType:       opts.FPType,
		nBits:        opts.NBits,
		useFeatures:  opts.UseFeatures,
		useChirality: opts.UseChirality,
	}
	if info, ok := f.morgan.Get(key); ok {
		return info
	}

	fopts := fingerprint.MorganOptions{
		Radius:       key.radius,
		UseFeatures:  opts.UseFeatures,
		UseChirality: opts.UseChirality,
	}
	info := &morganInfo{}
	if opts.FPType == FPTypeBitVect {
		info.bv, info.bitInfo = fingerprint.MorganBitVect(mol, uint(opts.NBits), fopts)
	} else {
		info.counts, info.bitInfo = fingerprint.MorganFingerprint(mol, uint(opts.NBits), fopts)
	}

	// atomBits[a] lists a bit once per environment covering a under it, so a
	// count vector loses every such environment. Repeats are harmless in the
	// bit-vector mask.
	info.atomBits = make([][]uint32, mol.NumAtoms())
	for bit, envs := range info.bitInfo {
		for _, env := range envs {
			for _, a := range fingerprint.AtomsOfEnvironment(mol, env) {
				info.atomBits[a] = append(info.atomBits[a], bit)
			}
		}
	}

	f.morgan.Add(key, info)
	return info
}

// MorganBitInfo returns the environments behind every bit of the full Morgan
// fingerprint of mol.
func (f *Fingerprinter) MorganBitInfo(mol *chem.Molecule, opts MorganOptions) (fingerprint.BitInfo, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkAtomID(mol, -1); err != nil {
		return nil, err
	}
	return f.morganInfo(mol, opts).bitInfo, nil
}

// MorganFunc binds opts into a FingerprintFunc.
func (f *Fingerprinter) MorganFunc(opts MorganOptions) FingerprintFunc {
	return func(mol *chem.Molecule, atomID int) (fingerprint.Fingerprint, error) {
		return f.Morgan(mol, atomID, opts)
	}
}

// ── Atom pairs ──────────────────────────────────────────────────────────────

// AtomPairs returns the atom-pair fingerprint of mol, ignoring atomID when atomID >= 0.
func (f *Fingerprinter) AtomPairs(mol *chem.Molecule, atomID int, opts APOptions) (fingerprint.Fingerprint, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkAtomID(mol, atomID); err != nil {
		return nil, err
	}

	fopts := fingerprint.AtomPairOptions{
		MinLength:        opts.MinLength,
		MaxLength:        opts.MaxLength,
		IncludeChirality: opts.IncludeChirality,
	}
	if atomID >= 0 {
		fopts.IgnoreAtoms = []int{atomID}
	}
	switch opts.FPType {
	case FPTypeNormal:
		return fingerprint.AtomPairFingerprint(mol, fopts), nil
	case FPTypeHashed:
		return fingerprint.HashedAtomPairFingerprint(mol, uint(opts.NBits), fopts), nil
	default:
		return fingerprint.HashedAtomPairBitVect(mol, uint(opts.NBits), uint(opts.NBitsPerEntry), fopts), nil
	}
}

// AtomPairsFunc binds opts into a FingerprintFunc.
func (f *Fingerprinter) AtomPairsFunc(opts APOptions) FingerprintFunc {
	return func(mol *chem.Molecule, atomID int) (fingerprint.Fingerprint, error) {
		return f.AtomPairs(mol, atomID, opts)
	}
}

// ── Torsions ────────────────────────────────────────────────────────────────

// Torsions returns the topological torsion fingerprint of mol, ignoring atomID
// when atomID >= 0.
func (f *Fingerprinter) Torsions(mol *chem.Molecule, atomID int, opts TTOptions) (fingerprint.Fingerprint, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkAtomID(mol, atomID); err != nil {
		return nil, err
	}

	fopts := fingerprint.TorsionOptions{
		TargetSize:       opts.TargetSize,
		IncludeChirality: opts.IncludeChirality,
	}
	if atomID >= 0 {
		fopts.IgnoreAtoms = []int{atomID}
	}
	switch opts.FPType {
	case FPTypeNormal:
		return fingerprint.TopologicalTorsionFingerprint(mol, fopts), nil
	case FPTypeHashed:
		return fingerprint.HashedTopologicalTorsionFingerprint(mol, uint(opts.NBits), fopts), nil
	default:
		return fingerprint.HashedTopologicalTorsionBitVect(mol, uint(opts.NBits), uint(opts.NBitsPerEntry), fopts), nil
	}
}

// TorsionsFunc binds opts into a FingerprintFunc.
func (f *Fingerprinter) TorsionsFunc(opts TTOptions) FingerprintFunc {
	return func(mol *chem.Molecule, atomID int) (fingerprint.Fingerprint, error) {
		return f.Torsions(mol, atomID, opts)
	}
}

// ── RDK ─────────────────────────────────────────────────────────────────────

// RDK returns the path fingerprint of mol, without the bits of every path
// through atomID when atomID >= 0.
func (f *Fingerprinter) RDK(mol *chem.Molecule, atomID int, opts RDKOptions) (fingerprint.Fingerprint, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := checkAtomID(mol, atomID); err != nil {
		return nil, err
	}

	key := rdkKey{mol: mol, opts: opts}
	info, ok := f.rdk.Get(key)
	if !ok {
		fp, atomBits := fingerprint.RDKFingerprint(mol, uint(opts.NBits), fingerprint.RDKOptions{
			MinPath:      opts.MinPath,
			MaxPath:      opts.MaxPath,
			NBitsPerHash: opts.NBitsPerHash,
		})
		info = &rdkInfo{fp: fp, atomBits: atomBits}
		f.rdk.Add(key, info)
	}

	if atomID < 0 {
		return info.fp.Clone(), nil
	}
	mask := fingerprint.NewBitVect(uint(opts.NBits))
	for _, bit := range info.atomBits[atomID] {
		mask.Set(bit)
	}
	return info.fp.AndNot(mask), nil
}

// RDKFunc binds opts into a FingerprintFunc.
func (f *Fingerprinter) RDKFunc(opts RDKOptions) FingerprintFunc {
	return func(mol *chem.Molecule, atomID int) (fingerprint.Fingerprint, error) {
		return f.RDK(mol, atomID, opts)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Package-level getters
// ─────────────────────────────────────────────────────────────────────────────

// GetMorganFingerprint is DefaultFingerprinter().Morgan.
func GetMorganFingerprint(mol *chem.Molecule, atomID int, opts MorganOptions) (fingerprint.Fingerprint, error) {
	return defaultFingerprinter.Morgan(mol, atomID, opts)
}

// GetAPFingerprint is DefaultFingerprinter().AtomPairs.
func GetAPFingerprint(mol *chem.Molecule, atomID int, opts APOptions) (fingerprint.Fingerprint, error) {
	return defaultFingerprinter.AtomPairs(mol, atomID, opts)
}

// GetTTFingerprint is DefaultFingerprinter().Torsions.
func GetTTFingerprint(mol *chem.Molecule, atomID int, opts TTOptions) (fingerprint.Fingerprint, error) {
	return defaultFingerprinter.Torsions(mol, atomID, opts)
}

// GetRDKFingerprint is DefaultFingerprinter().RDK.
func GetRDKFingerprint(mol *chem.Molecule, atomID int, opts RDKOptions) (fingerprint.Fingerprint, error) {
	return defaultFingerprinter.RDK(mol, atomID, opts)
}

func MorganFunc(opts MorganOptions) FingerprintFunc { return defaultFingerprinter.MorganFunc(opts) }
func APFunc(opts APOptions) FingerprintFunc         { return defaultFingerprinter.AtomPairsFunc(opts) }
func TTFunc(opts TTOptions) FingerprintFunc         { return defaultFingerprinter.TorsionsFunc(opts) }
func RDKFunc(opts RDKOptions) FingerprintFunc       { return defaultFingerprinter.RDKFunc(opts) }

//Personal.AI order the ending
