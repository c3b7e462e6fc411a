package action

// Program is an ordered list of tokens bound to one (button, event
// kind) pair. Programs are immutable after store construction.
type Program []Token

// Clone returns a copy of the program.
func (p Program) Clone() Program {
	if p == nil {
		return nil
	}
	out := make(Program, len(p))
	copy(out, p)
	return out
}

// HoldsKeys reports whether the program can leave keys held after it
// finishes, i.e. it contains a non-auto-release key press that is not
// followed by a matching release or a release-all.
func (p Program) HoldsKeys() bool {
	held := map[Key]bool{}
	for _, t := range p {
		switch t.Op {
		case OpKeyPress:
			if !t.AutoRelease {
				held[t.Key] = true
			}
		case OpKeyRelease:
			delete(held, t.Key)
		case OpReleaseAll, OpReleaseAllAfter:
			held = map[Key]bool{}
		}
	}
	return len(held) > 0
}
