package audio

import (
	"log"
	"sync"
)

const maxMidiVelocity = 127.0

// ----- Note ----- //

// Note is a held key.
type Note struct {
	Note     uint8
	Velocity float64 // 0 ~ 1
}

// NoteSource supplies the currently held notes.
type NoteSource interface {
	// Snapshot appends the held notes to dst, most recently pressed first.
	Snapshot(dst []Note) []Note
}

// ----- Held Notes ----- //

type noteSlot struct {
	on       bool
	note     uint8
	velocity float64
	seq      uint64 // time of the last press or release
}

// HeldNotes is a fixed table of held notes, safe for concurrent use.
// It is written by the MIDI callback and the command loop and read by the
// router once per frame.
type HeldNotes struct {
	sync.Mutex
	slots []noteSlot
	seq   uint64
}

var _ NoteSource = (*HeldNotes)(nil)

// NewHeldNotes creates a table holding at most polyphony notes.
func NewHeldNotes(polyphony int) *HeldNotes {
	return &HeldNotes{
		slots: make([]noteSlot, polyphony),
	}
}

// NoteOn presses a note. Pressing a held note again refreshes it. When the
// table is full the oldest held note is replaced.
func (h *HeldNotes) NoteOn(note uint8, velocity float64) {
	h.Lock()
	defer h.Unlock()
	h.seq++
	slot := -1
	oldestFree := -1
	oldestOn := -1
	for i := range h.slots {
		s := &h.slots[i]
		if s.on && s.note == note {
			slot = i
			break
		}
		if !s.on && (oldestFree < 0 || s.seq < h.slots[oldestFree].seq) {
			oldestFree = i
		}
		if s.on && (oldestOn < 0 || s.seq < h.slots[oldestOn].seq) {
			oldestOn = i
		}
	}
	if slot < 0 {
		slot = oldestFree
	}
	if slot < 0 {
		slot = oldestOn
		if slot < 0 {
			return
		}
		log.Printf("polyphony exceeded: note %v replaces note %v\n", note, h.slots[slot].note)
	}
	h.slots[slot] = noteSlot{on: true, note: note, velocity: clamp01(velocity), seq: h.seq}
}

// NoteOff releases a note. Releasing a note that is not held is a no-op.
func (h *HeldNotes) NoteOff(note uint8) {
	h.Lock()
	defer h.Unlock()
	h.seq++
	for i := range h.slots {
		s := &h.slots[i]
		if s.on && s.note == note {
			s.on = false
			s.seq = h.seq
			return
		}
	}
}

// AllNotesOff releases every note.
func (h *HeldNotes) AllNotesOff() {
	h.Lock()
	defer h.Unlock()
	h.seq++
	for i := range h.slots {
		if h.slots[i].on {
			h.slots[i].on = false
			h.slots[i].seq = h.seq
		}
	}
}

// Snapshot implements NoteSource.
func (h *HeldNotes) Snapshot(dst []Note) []Note {
	h.Lock()
	defer h.Unlock()
	start := len(dst)
	for _, s := range h.slots {
		if !s.on {
			continue
		}
		dst = append(dst, Note{Note: s.note, Velocity: s.velocity})
		// insertion sort by recency, the table is tiny
		for j := len(dst) - 1; j > start && h.seqOf(dst[j-1].Note) < s.seq; j-- {
			dst[j], dst[j-1] = dst[j-1], dst[j]
		}
	}
	return dst
}

func (h *HeldNotes) seqOf(note uint8) uint64 {
	for _, s := range h.slots {
		if s.on && s.note == note {
			return s.seq
		}
	}
	return 0
}

// HandleMidi applies a raw MIDI channel message. Anything other than
// note-on and note-off is ignored.
func (h *HeldNotes) HandleMidi(data []byte) {
	if len(data) < 3 {
		return
	}
	switch data[0] >> 4 {
	case 0x8:
		h.NoteOff(data[1])
	case 0x9:
		if data[2] == 0 {
			h.NoteOff(data[1])
		} else {
			h.NoteOn(data[1], float64(data[2])/maxMidiVelocity)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
