package gate

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apphttp "khazana/internal/http"
	"khazana/internal/logging"
	"khazana/internal/models"
	"khazana/internal/services/gate"
)

// RegisterRoutes registers the PIN gate routes
func RegisterRoutes(r chi.Router) {
	r.Get("/gate", handleStatus)
	r.Post("/gate/digits", handleDigit)
	r.Post("/gate/backspace", handleBackspace)
	r.Post("/gate/clear", handleClear)
	r.Post("/gate/verify", handleVerify)
	r.Post("/gate/logout", handleLogout)
	r.Put("/pin", handleChangePIN)
}

type digitRequest struct {
	Digit string `json:"digit"`
}

type verifyRequest struct {
	PIN string `json:"pin"`
}

type changePINRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func userGate(w http.ResponseWriter, r *http.Request) (*gate.Gate, bool) {
	g, err := apphttp.AccountFrom(r).Gate(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return nil, false
	}
	return g, true
}

// writeStatus reports the gate state. A lockout is reported with 423 and
// the status body so clients can show the remaining attempts.
func writeStatus(w http.ResponseWriter, r *http.Request, status gate.Status, err error) {
	switch {
	case errors.Is(err, gate.ErrLockedOut):
		logging.For(logging.ComponentGate).Warn("gate locked out",
			slog.String(logging.FieldUser, apphttp.AccountFrom(r).User))
		apphttp.WriteJSON(w, http.StatusLocked, status)
	case err != nil:
		apphttp.WriteError(w, err)
	default:
		apphttp.WriteJSON(w, http.StatusOK, status)
	}
}

func handleStatus(w http.ResponseWriter, r *http.Request) {
	g, ok := userGate(w, r)
	if !ok {
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, g.Status())
}

func handleDigit(w http.ResponseWriter, r *http.Request) {
	g, ok := userGate(w, r)
	if !ok {
		return
	}
	var req digitRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	if len(req.Digit) != 1 {
		apphttp.WriteError(w, models.Invalid("digit", "send exactly one digit"))
		return
	}
	status, err := g.Enter(req.Digit[0])
	writeStatus(w, r, status, err)
}

func handleBackspace(w http.ResponseWriter, r *http.Request) {
	g, ok := userGate(w, r)
	if !ok {
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, g.Backspace())
}

func handleClear(w http.ResponseWriter, r *http.Request) {
	g, ok := userGate(w, r)
	if !ok {
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, g.Clear())
}

func handleVerify(w http.ResponseWriter, r *http.Request) {
	g, ok := userGate(w, r)
	if !ok {
		return
	}
	var req verifyRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	status, err := g.EnterCode(req.PIN)
	writeStatus(w, r, status, err)
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	g, ok := userGate(w, r)
	if !ok {
		return
	}
	apphttp.WriteJSON(w, http.StatusOK, g.Logout())
}

func handleChangePIN(w http.ResponseWriter, r *http.Request) {
	a := apphttp.AccountFrom(r)
	var req changePINRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	if err := a.ChangePIN(r.Context(), req.Old, req.New); err != nil {
		apphttp.WriteError(w, err)
		return
	}
	logging.For(logging.ComponentGate).Info("PIN changed", slog.String(logging.FieldUser, a.User))
	w.WriteHeader(http.StatusNoContent)
}
