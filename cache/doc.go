// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache keeps rendered poll charts in Redis.

Each poll has one key, "poll-image-{pollID}", holding the PNG bytes, and a
generation counter, "poll-image-version-{pollID}". Entries live for a year.
Invalidate deletes the image and bumps the generation whenever a poll's
votes change or the poll is removed. A renderer reads the generation before
tallying and writes with SetIfCurrent, which drops the image if a vote
landed in between, so a cached image always matches the committed tally.

	rdb, err := cache.Connect(ctx, "redis://localhost:6379/0")
	images := cache.NewImageCache(rdb, 0)

	png, ok, err := images.Get(ctx, pollID)
	version, err := images.Version(ctx, pollID)
	stored, err := images.SetIfCurrent(ctx, pollID, version, png)
	err = images.Invalidate(ctx, pollID)

Values that do not start with the PNG signature are treated as misses.
*/
package cache
