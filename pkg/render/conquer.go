package render

import "strings"

// Colors assigns fill colors in a batch. When Each is non-empty the color at
// the same index as the identifier is used; otherwise Shared applies to all.
// Blank colors fall back to the engine default.
type Colors struct {
	Shared string
	Each   []string
}

// SharedColor gives every identifier the same color.
func SharedColor(c string) Colors { return Colors{Shared: c} }

// ColorList gives each identifier its own color.
func ColorList(cs ...string) Colors { return Colors{Each: cs} }

func (c Colors) at(i int) string {
	if len(c.Each) > 0 {
		if i < len(c.Each) {
			return c.Each[i]
		}
		return ""
	}
	return c.Shared
}

// NormalizedMatch records an input that matched only after normalization.
type NormalizedMatch struct {
	Input string `json:"input"`
	ID    string `json:"id"`
}

// BatchResult is the advisory outcome of ApplyConqueredBatch. Unmatched holds
// the identifiers that missed on the first pass; those recovered by
// normalization are listed in Normalized and the rest in Pending, which are
// retried once after the retry delay.
type BatchResult struct {
	Matched    []string          `json:"matched"`
	Unmatched  []string          `json:"unmatched"`
	Normalized []NormalizedMatch `json:"normalized"`
	Pending    []string          `json:"pending"`
}

// ApplyConquered styles a region as conquered and labels it. It returns false
// when the identifier does not resolve.
func (e *Engine) ApplyConquered(id, color string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	en := e.lookupLocked(id)
	if en == nil {
		e.log.Debug().Str("id", id).Msg("No region for identifier")
		e.obs.Unmatched(id)
		return false
	}
	e.applyLocked(en, color)
	return true
}

func (e *Engine) applyLocked(en *entry, color string) {
	if color == "" {
		color = e.opts.DefaultColor
	}
	en.style = e.conqueredStyle(color)
	en.conquered = true
	en.color = color
	e.applySeq++
	en.seq = e.applySeq
	if !e.focusing {
		e.surface.SetShapeStyle(ShapeKey(en.id), en.style)
	}
	e.placeLabelLocked(en)
	e.obs.Applied(en.id)
}

type pendingID struct {
	input string
	color string
}

// ApplyConqueredBatch applies many identifiers at once. Misses go through a
// normalization pass, and whatever still misses is retried once after a
// short delay in case the shapes arrive late. A later batch or ClearAll
// cancels an outstanding retry, and the retry leaves alone any region that
// was styled after the batch ran.
func (e *Engine) ApplyConqueredBatch(ids []string, colors Colors) BatchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelRetryLocked()
	res := BatchResult{}
	applied := make(map[*entry]bool)
	var misses []pendingID

	for i, raw := range ids {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		color := colors.at(i)
		if en := e.lookupLocked(raw); en != nil {
			if !applied[en] {
				e.applyLocked(en, color)
				applied[en] = true
			}
			res.Matched = append(res.Matched, raw)
			continue
		}
		res.Unmatched = append(res.Unmatched, raw)
		misses = append(misses, pendingID{input: raw, color: color})
	}

	var pending []pendingID
	for _, m := range misses {
		en := e.lookupNormalizedLocked(m.input)
		if en == nil {
			pending = append(pending, m)
			res.Pending = append(res.Pending, m.input)
			continue
		}
		if !applied[en] {
			e.applyLocked(en, m.color)
			applied[en] = true
		}
		res.Normalized = append(res.Normalized, NormalizedMatch{Input: m.input, ID: en.id})
	}

	if len(res.Unmatched) > 0 {
		e.log.Debug().
			Strs("unmatched", res.Unmatched).
			Int("normalized", len(res.Normalized)).
			Msg("Batch had unmatched identifiers")
	}
	if len(pending) > 0 {
		gen, since := e.generation, e.applySeq
		e.retry = e.sched.AfterFunc(e.opts.RetryDelay, func() {
			e.runRetry(gen, since, pending, applied)
		})
	}
	return res
}

func (e *Engine) runRetry(gen, since uint64, pending []pendingID, applied map[*entry]bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		return
	}
	e.retry = nil

	resolved := 0
	var still []string
	for _, p := range pending {
		en := e.lookupLocked(p.input)
		if en == nil {
			en = e.lookupNormalizedLocked(p.input)
		}
		if en == nil {
			still = append(still, p.input)
			e.obs.Unmatched(p.input)
			continue
		}
		resolved++
		if applied[en] || en.seq > since {
			continue
		}
		e.applyLocked(en, p.color)
		applied[en] = true
	}
	e.obs.Retried(resolved, len(still))
	if len(still) > 0 {
		e.log.Debug().Strs("unmatched", still).Msg("Identifiers still unmatched after retry")
	}
}

func (e *Engine) cancelRetryLocked() {
	e.generation++
	if e.retry != nil {
		e.retry.Stop()
		e.retry = nil
	}
}

// normalizeCandidates yields the forms tried for an unmatched identifier.
func normalizeCandidates(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	collapsed := strings.Join(strings.Fields(trimmed), " ")
	return []string{
		raw,
		trimmed,
		collapsed,
		strings.ToUpper(collapsed),
		strings.ToLower(collapsed),
	}
}

func (e *Engine) lookupNormalizedLocked(raw string) *entry {
	for _, c := range normalizeCandidates(raw) {
		if en := e.lookupLocked(c); en != nil {
			return en
		}
	}
	return nil
}

// ClearAll resets every region to the unowned style and removes all labels.
// Any pending batch retry is cancelled.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelRetryLocked()
	for _, en := range e.entries {
		e.clearLabelLocked(en.id)
		en.style = HiddenStyle()
		en.conquered = false
		en.color = ""
		if !e.focusing {
			e.surface.SetShapeStyle(ShapeKey(en.id), en.style)
		}
	}
	for id := range e.labels {
		e.clearLabelLocked(id)
	}
}

// Conquered returns the identifiers of all conquered regions in load order.
func (e *Engine) Conquered() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, en := range e.entries {
		if en.conquered {
			out = append(out, en.id)
		}
	}
	return out
}
