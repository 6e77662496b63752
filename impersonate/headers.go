package impersonate

import (
	"net/http"
)

// headerEntry stores a single header key/value pair with its original casing.
type headerEntry struct {
	key   string
	value string
}

// HeaderSet is an ordered, case-preserving list of request headers, the
// form in which profiles supply their default headers.
//
// Unlike http.Header, iteration follows insertion order; Keys is the wire
// order the client transport sends them in. HeaderSet is NOT
// safe for concurrent mutation; profile header sets are built once and then
// only read.
type HeaderSet struct {
	entries []headerEntry
}

// Add appends key/value, preserving the casing of key.
func (h *HeaderSet) Add(key, value string) {
	h.entries = append(h.entries, headerEntry{key: key, value: value})
}

// Set replaces the first entry matching key (case-insensitively) and drops
// later duplicates. If no entry matches, Set behaves like Add.
func (h *HeaderSet) Set(key, value string) {
	canonKey := http.CanonicalHeaderKey(key)
	replaced := false
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			if !replaced {
				out = append(out, headerEntry{key: key, value: value})
				replaced = true
			}
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, headerEntry{key: key, value: value})
	}
	h.entries = out
}

// Del removes all entries matching key (case-insensitively).
func (h *HeaderSet) Del(key string) {
	canonKey := http.CanonicalHeaderKey(key)
	out := h.entries[:0]
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) != canonKey {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Get returns the first value for key, or "".
func (h *HeaderSet) Get(key string) string {
	if h == nil {
		return ""
	}
	canonKey := http.CanonicalHeaderKey(key)
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			return e.value
		}
	}
	return ""
}

// Has reports whether key is present.
func (h *HeaderSet) Has(key string) bool {
	if h == nil {
		return false
	}
	canonKey := http.CanonicalHeaderKey(key)
	for _, e := range h.entries {
		if http.CanonicalHeaderKey(e.key) == canonKey {
			return true
		}
	}
	return false
}

// Len returns the number of entries, duplicates included.
func (h *HeaderSet) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Keys returns the header names in order.
func (h *HeaderSet) Keys() []string {
	if h == nil {
		return nil
	}
	keys := make([]string, len(h.entries))
	for i, e := range h.entries {
		keys[i] = e.key
	}
	return keys
}

// Clone returns an independent copy.
func (h *HeaderSet) Clone() *HeaderSet {
	c := &HeaderSet{}
	if h != nil {
		c.entries = append([]headerEntry(nil), h.entries...)
	}
	return c
}

// ApplyTo fills req.Header with every entry whose key the request does not
// already carry. Headers set by the caller win over the profile defaults.
// http.Header loses the order; send it alongside from Keys.
func (h *HeaderSet) ApplyTo(req *http.Request) {
	if h == nil {
		return
	}
	if req.Header == nil {
		req.Header = make(http.Header, len(h.entries))
	}
	for _, e := range h.entries {
		canon := http.CanonicalHeaderKey(e.key)
		if _, ok := req.Header[canon]; ok {
			continue
		}
		req.Header[canon] = append(req.Header[canon], e.value)
	}
}

// ConfigureImpersonate returns imp's default headers with every entry of
// caller layered on top, so caller values win.
func ConfigureImpersonate(imp Impersonate, caller *HeaderSet) *HeaderSet {
	out := profileData(imp).headers()
	if caller != nil {
		for _, e := range caller.entries {
			out.Set(e.key, e.value)
		}
	}
	return out
}
