package v1

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/class-treasury-api/internal/domain"
	"github.com/vietanh2810/class-treasury-api/internal/service"
)

func newRaffleRouter(svc *mockRaffleService) *gin.Engine {
	h := NewRaffleHandler(svc)
	r := gin.New()
	g := r.Group("/raffles", asAdmin)
	g.GET("", h.HandleListRaffles)
	g.POST("", h.HandleCreateRaffle)
	g.GET("/:raffleID", h.HandleGetRaffle)
	g.POST("/:raffleID/participants", h.HandleAddParticipant)
	g.POST("/:raffleID/draw", h.HandleDraw)
	g.GET("/:raffleID/draw/verify", h.HandleVerifyDraw)
	g.PATCH("/:raffleID/cancel", h.HandleCancelRaffle)
	return r
}

func TestRaffleHandler_Create(t *testing.T) {
	svc := &mockRaffleService{}
	svc.On("CreateRaffle", mock.Anything, actorMatcher(), mock.MatchedBy(func(in domain.NewRaffle) bool {
		return in.Title == "Spring raffle" && in.DrawDate != nil
	})).Return(domain.Raffle{ID: testRaffle, Title: "Spring raffle", Status: domain.RaffleOpen}, nil)

	w := doRequest(t, newRaffleRouter(svc), http.MethodPost, "/raffles",
		`{"title":"Spring raffle","draw_date":"2026-11-01T18:00:00Z"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "OPEN", decodeBody(t, w)["status"])

	w = doRequest(t, newRaffleRouter(svc), http.MethodPost, "/raffles", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRaffleHandler_List(t *testing.T) {
	svc := &mockRaffleService{}
	svc.On("ListRaffles", mock.Anything, domain.RaffleClosed).Return([]domain.Raffle{{ID: testRaffle}}, nil)

	w := doRequest(t, newRaffleRouter(svc), http.MethodGet, "/raffles?status=CLOSED", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, newRaffleRouter(svc), http.MethodGet, "/raffles?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRaffleHandler_AddParticipant(t *testing.T) {
	t.Run("defaults to one ticket", func(t *testing.T) {
		svc := &mockRaffleService{}
		svc.On("AddParticipant", mock.Anything, actorMatcher(), testRaffle, "student-1", int64(1)).
			Return(domain.RaffleParticipant{StudentID: "student-1", Tickets: 1}, nil)

		w := doRequest(t, newRaffleRouter(svc), http.MethodPost, "/raffles/"+testRaffle+"/participants", `{"student_id":"student-1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejects zero tickets", func(t *testing.T) {
		svc := &mockRaffleService{}
		w := doRequest(t, newRaffleRouter(svc), http.MethodPost, "/raffles/"+testRaffle+"/participants", `{"student_id":"s","tickets":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "AddParticipant", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("closed raffle", func(t *testing.T) {
		svc := &mockRaffleService{}
		svc.On("AddParticipant", mock.Anything, actorMatcher(), testRaffle, "s", int64(2)).
			Return(domain.RaffleParticipant{}, fmt.Errorf("s.repo.AddParticipant -> %w", service.ErrRaffleNotOpen))

		w := doRequest(t, newRaffleRouter(svc), http.MethodPost, "/raffles/"+testRaffle+"/participants", `{"student_id":"s","tickets":2}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "raffle is not open", decodeBody(t, w)["error"])
	})
}

func TestRaffleHandler_Draw(t *testing.T) {
	svc := &mockRaffleService{}
	svc.On("Draw", mock.Anything, actorMatcher(), testRaffle).Return(domain.DrawResult{
		Draw: domain.RaffleDraw{RaffleID: testRaffle, WinnerID: "student-3"},
		Seed: "ab",
		Hash: "cd",
	}, nil)

	w := doRequest(t, newRaffleRouter(svc), http.MethodPost, "/raffles/"+testRaffle+"/draw", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ab", body["seed"])
	assert.Equal(t, "cd", body["hash"])
	assert.Equal(t, "student-3", body["draw"].(map[string]any)["winner_id"])
}

func TestRaffleHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrRaffleNotFound, http.StatusNotFound},
		{service.ErrRaffleNotOpen, http.StatusBadRequest},
		{service.ErrRaffleAlreadyDrawn, http.StatusBadRequest},
		{service.ErrNoParticipants, http.StatusBadRequest},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &mockRaffleService{}
			svc.On("Draw", mock.Anything, mock.Anything, testRaffle).
				Return(domain.DrawResult{}, fmt.Errorf("s.repo.Draw -> %w", tt.err))

			w := doRequest(t, newRaffleRouter(svc), http.MethodPost, "/raffles/"+testRaffle+"/draw", "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRaffleHandler_VerifyAndCancel(t *testing.T) {
	svc := &mockRaffleService{}
	svc.On("VerifyDraw", mock.Anything, testRaffle).Return(domain.DrawVerification{RaffleID: testRaffle, Valid: true}, nil)
	svc.On("Cancel", mock.Anything, actorMatcher(), testRaffle).
		Return(domain.Raffle{ID: testRaffle, Status: domain.RaffleCancelled}, nil)
	r := newRaffleRouter(svc)

	w := doRequest(t, r, http.MethodGet, "/raffles/"+testRaffle+"/draw/verify", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["valid"])

	w = doRequest(t, r, http.MethodPatch, "/raffles/"+testRaffle+"/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CANCELLED", decodeBody(t, w)["status"])

	w = doRequest(t, r, http.MethodGet, "/raffles/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
