// Package drawproof selects a raffle winner from weighted tickets and builds
// the digest that lets anyone re-check the selection from the disclosed seed.
//
// Participants are ordered by student id and participant i owns the ticket
// indices [sum(tickets[:i]), sum(tickets[:i+1])). The ticket index is derived
// from the seed, so (seed, pool) always maps to the same winner.
package drawproof

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"
)

// SeedSize is the number of random bytes behind every draw.
const SeedSize = 32

var (
	ErrEmptyPool        = errors.New("pool has no tickets")
	ErrInvalidTickets   = errors.New("ticket count must be positive")
	ErrDuplicateStudent = errors.New("student appears twice in pool")
	ErrIndexOutOfRange  = errors.New("ticket index out of range")
	ErrInvalidSeed      = errors.New("seed must be 64 hex characters")
)

type Entry struct {
	StudentID string
	Tickets   int64
}

// Pool is the cumulative-weight view of a raffle's participants.
type Pool struct {
	entries []Entry
	bounds  []int64
}

func NewPool(entries []Entry) (*Pool, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyPool
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StudentID < sorted[j].StudentID
	})

	bounds := make([]int64, len(sorted))
	var total int64
	for i, e := range sorted {
		if e.Tickets <= 0 {
			return nil, fmt.Errorf("%w: student %s has %d", ErrInvalidTickets, e.StudentID, e.Tickets)
		}
		if i > 0 && sorted[i-1].StudentID == e.StudentID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStudent, e.StudentID)
		}
		total += e.Tickets
		bounds[i] = total
	}

	return &Pool{entries: sorted, bounds: bounds}, nil
}

func (p *Pool) Total() int64 {
	return p.bounds[len(p.bounds)-1]
}

// Winner returns the student owning the ticket at index.
func (p *Pool) Winner(index int64) (string, error) {
	if index < 0 || index >= p.Total() {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, p.Total())
	}

	i := sort.Search(len(p.bounds), func(i int) bool {
		return p.bounds[i] > index
	})

	return p.entries[i].StudentID, nil
}

// NewSeed reads SeedSize bytes from r. Production callers pass crypto/rand.Reader.
func NewSeed(r io.Reader) ([]byte, error) {
	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	return seed, nil
}

// Index maps the seed onto [0, total). The 256-bit digest keeps the modulo
// bias below total/2^256.
func Index(seed []byte, total int64) (int64, error) {
	if total <= 0 {
		return 0, ErrEmptyPool
	}

	h := sha256.New()
	h.Write([]byte("index:"))
	h.Write(seed)
	n := new(big.Int).SetBytes(h.Sum(nil))

	return n.Mod(n, big.NewInt(total)).Int64(), nil
}

// Hash binds a draw to its raffle, seed, index and winner.
func Hash(raffleID, seedHex string, index int64, winnerID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%s", raffleID, seedHex, index, winnerID)))
	return hex.EncodeToString(sum[:])
}

type Proof struct {
	RaffleID string
	Seed     string
	Index    int64
	Total    int64
	WinnerID string
	Hash     string
}

// Select draws a winner for raffleID using fresh seed material from r.
func Select(r io.Reader, raffleID string, pool *Pool) (Proof, error) {
	seed, err := NewSeed(r)
	if err != nil {
		return Proof{}, err
	}

	return prove(raffleID, seed, pool)
}

func prove(raffleID string, seed []byte, pool *Pool) (Proof, error) {
	total := pool.Total()
	index, err := Index(seed, total)
	if err != nil {
		return Proof{}, err
	}

	winner, err := pool.Winner(index)
	if err != nil {
		return Proof{}, err
	}

	seedHex := hex.EncodeToString(seed)

	return Proof{
		RaffleID: raffleID,
		Seed:     seedHex,
		Index:    index,
		Total:    total,
		WinnerID: winner,
		Hash:     Hash(raffleID, seedHex, index, winner),
	}, nil
}

// Recompute rebuilds the proof for a disclosed seed against pool.
func Recompute(raffleID, seedHex string, pool *Pool) (Proof, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != SeedSize {
		return Proof{}, ErrInvalidSeed
	}

	return prove(raffleID, seed, pool)
}
