// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists polls and votes.

Poll creation and deletion append an event to the user audit log in the
same transaction. Every change that affects a chart (vote, unvote, edit,
delete) drops the poll's cached image afterwards; a cache failure is
logged and never fails the write.

Votes are unique per (user, poll, choice). Duplicate votes, including
concurrent ones, are silent no-ops.
*/
package store
