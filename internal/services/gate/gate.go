package gate

import (
	"errors"
	"sync"

	"khazana/internal/models"
)

// State of the access gate
type State string

const (
	Locked    State = "locked"
	Unlocking State = "unlocking"
	Unlocked  State = "unlocked"
	LockedOut State = "locked_out"
)

const (
	// CodeLength is the number of digits in a PIN
	CodeLength = 6

	// MaxAttempts is the number of mismatches that locks the gate out
	MaxAttempts = 3
)

var (
	// ErrLockedOut is returned for any input after the last allowed mismatch
	ErrLockedOut = errors.New("too many incorrect attempts")

	// ErrNotUnlocked is returned when gated data is requested while locked
	ErrNotUnlocked = errors.New("balance is locked; enter PIN")
)

// Gate checks a 6-digit code entered one digit at a time. Three cumulative
// mismatches lock it out until Logout. A correct code moves straight to
// Unlocked; the attempt counter is only reset by Logout.
type Gate struct {
	mu       sync.Mutex
	code     string
	state    State
	entered  []byte
	attempts int
}

// New creates a locked gate expecting code
func New(code string) *Gate {
	return &Gate{code: code, state: Locked}
}

// Status is a snapshot of the gate
type Status struct {
	State             State `json:"state"`
	Entered           int   `json:"entered"`
	Attempts          int   `json:"attempts"`
	RemainingAttempts int   `json:"remaining_attempts"`
}

// Status returns the current snapshot
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status()
}

func (g *Gate) status() Status {
	return Status{
		State:             g.state,
		Entered:           len(g.entered),
		Attempts:          g.attempts,
		RemainingAttempts: MaxAttempts - g.attempts,
	}
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsUnlocked reports whether gated data may be shown
func (g *Gate) IsUnlocked() bool {
	return g.State() == Unlocked
}

// Enter adds one digit. The sixth digit triggers the comparison.
// Input while Unlocked is ignored.
func (g *Gate) Enter(digit byte) (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.enter(digit); err != nil {
		return g.status(), err
	}
	return g.status(), nil
}

func (g *Gate) enter(digit byte) error {
	switch g.state {
	case LockedOut:
		return ErrLockedOut
	case Unlocked:
		return nil
	}
	if digit < '0' || digit > '9' {
		return models.Invalid("digit", "PIN digits must be 0-9")
	}

	g.entered = append(g.entered, digit)
	g.state = Unlocking
	if len(g.entered) < CodeLength {
		return nil
	}

	match := string(g.entered) == g.code
	g.entered = g.entered[:0]
	if match {
		g.state = Unlocked
		return nil
	}
	g.attempts++
	if g.attempts >= MaxAttempts {
		g.state = LockedOut
		return ErrLockedOut
	}
	g.state = Locked
	return nil
}

// EnterCode discards partial input and enters a full code
func (g *Gate) EnterCode(code string) (Status, error) {
	if !ValidCode(code) {
		return g.Status(), models.Invalid("pin", "PIN must be exactly %d digits", CodeLength)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Unlocking {
		g.entered = g.entered[:0]
		g.state = Locked
	}
	for i := 0; i < len(code); i++ {
		if err := g.enter(code[i]); err != nil {
			return g.status(), err
		}
	}
	return g.status(), nil
}

// Backspace removes the last entered digit
func (g *Gate) Backspace() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Unlocking && len(g.entered) > 0 {
		g.entered = g.entered[:len(g.entered)-1]
		if len(g.entered) == 0 {
			g.state = Locked
		}
	}
	return g.status()
}

// Clear discards the digits entered so far
func (g *Gate) Clear() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Unlocking {
		g.entered = g.entered[:0]
		g.state = Locked
	}
	return g.status()
}

// Logout returns to Locked and resets the attempt counter, from any state
func (g *Gate) Logout() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state = Locked
	g.entered = g.entered[:0]
	g.attempts = 0
	return g.status()
}

// SetCode replaces the expected code. Partial input is discarded.
func (g *Gate) SetCode(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.code = code
	if g.state == Unlocking {
		g.entered = g.entered[:0]
		g.state = Locked
	}
}

// ValidCode reports whether s is exactly CodeLength ASCII digits
func ValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
