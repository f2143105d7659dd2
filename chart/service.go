// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package chart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/db"
	"github.com/danielhkuo/ghpolls/models"
	"github.com/danielhkuo/ghpolls/store"
)

// Placeholder messages.
const (
	MessageRetry    = "updating in background... will be available in a few seconds"
	MessageInternal = "internal server error"
)

// PollSource loads polls and their tallies.
type PollSource interface {
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	Tally(ctx context.Context, poll models.Poll) (models.Tally, error)
}

// ImageCache stores rendered images by poll ID. Version moves on whenever
// the poll changes; SetIfCurrent stores nothing if it moved since the
// render started.
type ImageCache interface {
	Get(ctx context.Context, pollID string) ([]byte, bool, error)
	Version(ctx context.Context, pollID string) (int64, error)
	SetIfCurrent(ctx context.Context, pollID string, version int64, png []byte) (bool, error)
}

// Image is a PNG payload and the HTTP status it should be served with.
type Image struct {
	PNG    []byte
	Status int
}

// Service serves poll chart images, rendering on a cache miss.
type Service struct {
	polls    PollSource
	images   ImageCache
	renderer *Renderer

	retry    []byte
	internal []byte
}

// NewService creates a Service. images may be nil to render every request.
func NewService(polls PollSource, images ImageCache, renderer *Renderer) (*Service, error) {
	if renderer == nil {
		renderer = NewRenderer()
	}

	retry, err := renderer.Placeholder(MessageRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to render retry placeholder: %w", err)
	}
	internal, err := renderer.Placeholder(MessageInternal)
	if err != nil {
		return nil, fmt.Errorf("failed to render error placeholder: %w", err)
	}

	return &Service{
		polls:    polls,
		images:   images,
		renderer: renderer,
		retry:    retry,
		internal: internal,
	}, nil
}

// PollImage returns the chart for a poll. Unless refresh is set, a cached
// image is served when present. Only a missing poll is returned as an
// error (models.ErrNotFound); every other failure yields a placeholder
// image: 202 when the store is temporarily unavailable, 500 otherwise.
func (s *Service) PollImage(ctx context.Context, pollID string, refresh bool) (Image, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if errors.Is(err, models.ErrNotFound) {
		return Image{}, err
	}
	if err != nil {
		return s.failed(pollID, err), nil
	}

	cacheable := s.images != nil
	var version int64
	if cacheable {
		if !refresh {
			png, ok, err := s.images.Get(ctx, poll.ID)
			if err != nil {
				zap.L().Warn("image cache read failed", zap.String("poll_id", poll.ID), zap.Error(err))
			}
			if ok {
				return Image{PNG: png, Status: http.StatusOK}, nil
			}
		}

		// Read before the tally so a vote landing mid-render is noticed.
		version, err = s.images.Version(ctx, poll.ID)
		if err != nil {
			zap.L().Warn("image version read failed", zap.String("poll_id", poll.ID), zap.Error(err))
			cacheable = false
		}
	}

	tally, err := s.polls.Tally(ctx, poll)
	if err != nil {
		return s.failed(poll.ID, err), nil
	}

	png, err := s.renderer.Render(store.SortedChoices(poll.Choices, tally), tally)
	if err != nil {
		return s.failed(poll.ID, err), nil
	}

	if cacheable {
		stored, err := s.images.SetIfCurrent(ctx, poll.ID, version, png)
		if err != nil {
			zap.L().Warn("image cache write failed", zap.String("poll_id", poll.ID), zap.Error(err))
		} else if !stored {
			zap.L().Debug("poll changed during render, image not cached", zap.String("poll_id", poll.ID))
		}
	}
	return Image{PNG: png, Status: http.StatusOK}, nil
}

func (s *Service) failed(pollID string, err error) Image {
	if db.IsTransient(err) {
		zap.L().Error("poll image unavailable", zap.String("poll_id", pollID), zap.Error(err))
		return Image{PNG: s.retry, Status: http.StatusAccepted}
	}
	zap.L().Error("poll image failed", zap.String("poll_id", pollID), zap.Error(err))
	return Image{PNG: s.internal, Status: http.StatusInternalServerError}
}
