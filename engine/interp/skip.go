package interp

import "github.com/nathoo/eventcore/types"

// SkipTo scans forward from index from (inclusive) for a command whose code
// is open or close at exactly maxIndent. Commands indented deeper than
// maxIndent are skipped over. Reaching a command indented below minIndent
// ends the search unsuccessfully.
func SkipTo(prog types.Program, from, open, close, minIndent, maxIndent int) (int, bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(prog); i++ {
		c := prog[i]
		if c.Indent < minIndent {
			return 0, false
		}
		if c.Indent > maxIndent {
			continue
		}
		if c.Indent == maxIndent && (c.Code == open || c.Code == close) {
			return i, true
		}
	}
	return 0, false
}

// SkipBack is the backward mirror of SkipTo, scanning from index from
// (inclusive) toward the start of the program.
func SkipBack(prog types.Program, from, open, close, minIndent, maxIndent int) (int, bool) {
	if from >= len(prog) {
		from = len(prog) - 1
	}
	for i := from; i >= 0; i-- {
		c := prog[i]
		if c.Indent < minIndent {
			return 0, false
		}
		if c.Indent > maxIndent {
			continue
		}
		if c.Indent == maxIndent && (c.Code == open || c.Code == close) {
			return i, true
		}
	}
	return 0, false
}

// SkipOut scans forward from index from for the closer with the given code
// of a block enclosing a command at indent. The level drops each time the
// scan leaves a block, so closers of sibling blocks deeper than the current
// level are passed over.
func SkipOut(prog types.Program, from, code, indent int) (int, bool) {
	if from < 0 {
		from = 0
	}
	level := indent
	for i := from; i < len(prog); i++ {
		c := prog[i]
		if c.Indent >= level {
			continue
		}
		if c.Code == code {
			return i, true
		}
		level = c.Indent
	}
	return 0, false
}

// FindLabel returns the index of the first Label command carrying id.
func FindLabel(prog types.Program, labelCode, id int) (int, bool) {
	for i, c := range prog {
		if c.Code == labelCode && len(c.Params) > 0 && c.Params[0] == id {
			return i, true
		}
	}
	return 0, false
}
