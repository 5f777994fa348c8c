package domain

import (
	"strings"
	"time"
)

// Profile is the cached attendee card shown next to a match. Only the
// presence fields are ever overwritten by live status.
type Profile struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Title       string         `json:"title,omitempty"`
	Company     string         `json:"company,omitempty"`
	Email       string         `json:"email,omitempty"`
	LinkedIn    string         `json:"linkedin,omitempty"`
	Status      PresenceStatus `json:"status,omitempty"`
	LastUpdated *time.Time     `json:"lastUpdated,omitempty"`
	CheckedInAt *time.Time     `json:"checkedInAt,omitempty"`
}

// Match is one entry of the curated matches dataset.
type Match struct {
	Attendee        string   `json:"attendee"`
	AttendeeProfile Profile  `json:"attendeeProfile"`
	Match           string   `json:"match"`
	MatchProfile    Profile  `json:"matchProfile"`
	MatchScore      float64  `json:"matchScore"`
	WhatYouShare    []string `json:"whatYouShare,omitempty"`
	Icebreakers     []string `json:"icebreakers,omitempty"`
	MatchConfidence string   `json:"matchConfidence,omitempty"`
	PresenceStatus  string   `json:"presenceStatus,omitempty"`
}

type MatchesView struct {
	Matches []Match `json:"matches"`
	IsDemo  bool    `json:"isDemo"`
	Source  string  `json:"source"`
}

// ProfileKey looks a profile up by stable id first and display name second.
type ProfileKey struct {
	ID   string
	Name string
}

func (p Profile) Key() ProfileKey {
	return ProfileKey{ID: strings.TrimSpace(p.ID), Name: strings.TrimSpace(p.Name)}
}

// PresenceIndex resolves ProfileKeys against a set of presence records.
type PresenceIndex struct {
	byID   map[string]PresenceRecord
	byName map[string]PresenceRecord
}

func NewPresenceIndex(records []PresenceRecord) PresenceIndex {
	idx := PresenceIndex{
		byID:   make(map[string]PresenceRecord, len(records)),
		byName: make(map[string]PresenceRecord, len(records)),
	}
	for _, rec := range records {
		idx.byID[rec.AttendeeID] = rec
		if name := strings.TrimSpace(rec.DisplayName); name != "" {
			idx.byName[name] = rec
		}
	}
	return idx
}

func (idx PresenceIndex) Lookup(key ProfileKey) (PresenceRecord, bool) {
	if key.ID != "" {
		if rec, ok := idx.byID[key.ID]; ok {
			return rec, true
		}
	}
	if key.Name != "" {
		rec, ok := idx.byName[key.Name]
		return rec, ok
	}
	return PresenceRecord{}, false
}

// MergePresence copies status, lastUpdated and checkedInAt from rec onto p.
func MergePresence(p Profile, rec PresenceRecord) Profile {
	out := p
	out.Status = rec.Status
	updated := rec.LastUpdated
	out.LastUpdated = &updated
	if rec.CheckedInAt != nil {
		at := *rec.CheckedInAt
		out.CheckedInAt = &at
	} else {
		out.CheckedInAt = nil
	}
	return out
}
