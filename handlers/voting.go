// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/url"

	"github.com/danielhkuo/ghpolls/cliparse"
	"github.com/danielhkuo/ghpolls/forms"
	"github.com/danielhkuo/ghpolls/middleware"
	"github.com/danielhkuo/ghpolls/models"
	"github.com/danielhkuo/ghpolls/store"
)

// HistoryLimit caps the votes listed on the vote page.
const HistoryLimit = 100

// An empty choice is not an error; it just changes nothing.
var choiceField = forms.LineField{Name: "choice", Optional: forms.NewOptional()}

type VotingHandler struct {
	store *store.Store
	cfg   cliparse.Config
}

func NewVotingHandler(st *store.Store, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{store: st, cfg: cfg}
}

// Vote handles GET and POST /polls/{id}
//
// Voting needs a signed-in user with a linked GitHub login; anyone else is
// sent to the authorize URL and brought back here afterwards. Visitors
// arriving from a github.com page keep that page in github_url so a POST
// can send them back to it.
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	poll, err := h.store.GetPoll(r.Context(), pollID(r))
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}

	redirectStatus := http.StatusFound
	if r.Method == http.MethodPost {
		redirectStatus = http.StatusSeeOther
	}

	referrer := r.Referer()
	user, ok := middleware.CurrentUser(r.Context())
	if !ok || user.DisplayName == "" {
		next := h.cfg.BaseURL + r.URL.RequestURI()
		if isGitHubURL(referrer) {
			next = withParams(next, url.Values{"github_url": {referrer}})
		}
		target := withParams(h.cfg.OAuthAuthorizeURL, url.Values{
			"reason": {"login"},
			"next":   {next},
		})
		http.Redirect(w, r, target, redirectStatus)
		return
	}

	githubURL := r.URL.Query().Get("github_url")
	if githubURL == "" && isGitHubURL(referrer) {
		target := withParams("/polls/"+poll.ID, url.Values{"github_url": {referrer}})
		http.Redirect(w, r, target, redirectStatus)
		return
	}

	if r.Method == http.MethodPost {
		if !parseForm(w, r) {
			return
		}
		choice, err := choiceField.Validate(forms.FormValue(r.PostForm, "choice"))
		if err != nil {
			validationFailed(w, err)
			return
		}
		if choice != "" {
			if _, err := h.store.VoteFor(r.Context(), poll, user, choice); err != nil {
				storeError(w, r, err, "Failed to record vote")
				return
			}
		}

		next := IndexPath
		if isGitHubURL(githubURL) {
			next = githubURL
		}
		redirectAfterWrite(w, r, next)
		return
	}

	h.votePage(w, r, poll, user, githubURL)
}

func (h *VotingHandler) votePage(w http.ResponseWriter, r *http.Request, poll models.Poll, user models.Voter, githubURL string) {
	tally, err := h.store.Tally(r.Context(), poll)
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}
	voted, err := h.store.VotedChoices(r.Context(), poll, user.UserID)
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}
	history, err := h.store.VoteHistory(r.Context(), poll, HistoryLimit)
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}

	sorted := store.SortedChoices(poll.Choices, tally)
	choices := make([]models.ChoiceView, 0, len(sorted))
	for _, choice := range sorted {
		choices = append(choices, models.ChoiceView{
			Choice: choice,
			Votes:  tally.Count(choice),
			Voted:  voted[choice],
		})
	}

	if !isGitHubURL(githubURL) {
		githubURL = ""
	}

	middleware.JSONResponse(w, http.StatusOK, models.VotePageResponse{
		PollID:    poll.ID,
		Title:     poll.Title(),
		Choices:   choices,
		NumVotes:  tally.Total,
		ImageURL:  poll.ImageURL(h.cfg.BaseURL),
		Markdown:  poll.Markdown(h.cfg.BaseURL),
		GitHubURL: githubURL,
		History:   history,
	})
}

// Unvote handles POST /polls/{id}/unvote
func (h *VotingHandler) Unvote(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	poll, err := h.store.GetPoll(r.Context(), pollID(r))
	if err != nil {
		storeError(w, r, err, "Failed to load poll")
		return
	}

	var req models.UnvoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	choice, err := choiceField.Validate(forms.StringValue(req.Choice))
	if err != nil {
		validationFailed(w, err)
		return
	}
	if choice != "" {
		if _, err := h.store.RemoveVoteFor(r.Context(), poll, user.UserID, choice); err != nil {
			storeError(w, r, err, "Failed to remove vote")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]any{"data": struct{}{}})
}
