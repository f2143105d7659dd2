// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/cliparse"
	"github.com/danielhkuo/ghpolls/forms"
	"github.com/danielhkuo/ghpolls/middleware"
	"github.com/danielhkuo/ghpolls/models"
	"github.com/danielhkuo/ghpolls/store"
)

var choicesField = forms.ChoicesField{Name: "choices"}

type PollHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewPollHandler(st *store.Store, cfg cliparse.Config) *PollHandler {
	return &PollHandler{store: st, cfg: cfg}
}

// ListPolls handles GET /polls
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	polls, err := h.store.ListPolls(r.Context(), user.UserID)
	if err != nil {
		storeError(w, r, err, "Failed to list polls")
		return
	}

	resp := models.ListPollsResponse{Polls: make([]models.PollSummary, 0, len(polls))}
	for _, poll := range polls {
		summary, err := h.summarize(r, poll)
		if err != nil {
			storeError(w, r, err, "Failed to list polls")
			return
		}
		resp.Polls = append(resp.Polls, summary)
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

func (h *PollHandler) summarize(r *http.Request, poll models.Poll) (models.PollSummary, error) {
	tally, err := h.store.Tally(r.Context(), poll)
	if err != nil {
		return models.PollSummary{}, err
	}
	lastVotedAt, err := h.store.LastVotedAt(r.Context(), poll)
	if err != nil {
		return models.PollSummary{}, err
	}

	summary := models.PollSummary{
		ID:          poll.ID,
		Title:       poll.Title(),
		Choices:     poll.Choices,
		NumVotes:    tally.Total,
		URL:         poll.URL(h.cfg.BaseURL),
		ImageURL:    poll.ImageURL(h.cfg.BaseURL),
		Markdown:    poll.Markdown(h.cfg.BaseURL),
		LastVotedAt: lastVotedAt,
		CreatedAt:   poll.CreatedAt,
	}
	if lastVotedAt != nil {
		summary.LastVoted = humanize.Time(*lastVotedAt)
	}
	return summary, nil
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	count, err := h.store.CountPolls(r.Context(), user.UserID)
	if err != nil {
		storeError(w, r, err, "Failed to create poll")
		return
	}
	if count >= h.cfg.MaxPollsPerUser {
		middleware.ErrorResponse(w, http.StatusForbidden,
			"You've created the maximum number of polls. Please delete one before creating another.")
		return
	}

	if !parseForm(w, r) {
		return
	}

	choices, err := choicesField.Validate(forms.FormValue(r.PostForm, "choices"))
	if err != nil {
		validationFailed(w, err)
		return
	}

	if _, err := h.store.CreatePoll(r.Context(), user.UserID, choices); err != nil {
		storeError(w, r, err, "Failed to create poll")
		return
	}

	redirectAfterWrite(w, r, IndexPath)
}

// EditForm handles GET /polls/{id}/edit
func (h *PollHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	poll, err := h.store.GetOwnedPoll(r.Context(), pollID(r), user.UserID)
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.EditPollResponse{
		PollID:  poll.ID,
		Choices: strings.Join(poll.Choices, "\n"),
	})
}

// EditPoll handles POST /polls/{id}/edit. A submission without choices
// re-saves the current ones.
func (h *PollHandler) EditPoll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	poll, err := h.store.GetOwnedPoll(r.Context(), pollID(r), user.UserID)
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}

	if !parseForm(w, r) {
		return
	}

	value := forms.FormValue(r.PostForm, "choices")
	if value.Raw == "" {
		value = forms.Value{Raw: strings.Join(poll.Choices, "\n")}
	}

	choices, err := choicesField.Validate(value)
	if err != nil {
		validationFailed(w, err)
		return
	}

	if err := h.store.UpdateChoices(r.Context(), &poll, choices); err != nil {
		storeError(w, r, err, "Failed to save poll")
		return
	}

	zap.L().Info("poll edited", zap.String("poll_id", poll.ID), zap.Int("choices", len(choices)))
	redirectAfterWrite(w, r, IndexPath)
}

// DeletePoll handles POST /polls/{id}/delete
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	poll, err := h.store.GetOwnedPoll(r.Context(), pollID(r), user.UserID)
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}

	if err := h.store.DeletePoll(r.Context(), poll); err != nil {
		storeError(w, r, err, "Failed to delete poll")
		return
	}

	redirectAfterWrite(w, r, IndexPath)
}

func validationFailed(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		middleware.ValidationErrorResponse(w, verr)
		return
	}
	middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprint(err))
}
