package textwrap

import "strings"

// LineBreak separates wrapped lines. The document emitter turns it into the
// subtitle format's hard break.
const LineBreak = "\n"

// Wrap greedily packs whitespace separated words into lines of at most budget
// columns. A word wider than the budget is split into budget sized chunks; the
// final chunk may be followed by later words.
func Wrap(text string, budget int) []string {
	if budget < 1 {
		budget = 1
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	curCols := 0
	flush := func() {
		if curCols > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curCols = 0
		}
	}

	for _, word := range words {
		wc := Columns(word)
		if wc > budget {
			flush()
			chunks := hardSplit(word, budget)
			lines = append(lines, chunks[:len(chunks)-1]...)
			last := chunks[len(chunks)-1]
			cur.WriteString(last)
			curCols = Columns(last)
			continue
		}
		switch {
		case curCols == 0:
			cur.WriteString(word)
			curCols = wc
		case curCols+1+wc <= budget:
			cur.WriteByte(' ')
			cur.WriteString(word)
			curCols += 1 + wc
		default:
			flush()
			cur.WriteString(word)
			curCols = wc
		}
	}
	flush()
	return lines
}

// hardSplit cuts word into chunks no wider than budget columns.
func hardSplit(word string, budget int) []string {
	var chunks []string
	var cur strings.Builder
	cols := 0
	for _, r := range word {
		rc := runeColumns(r)
		if cols > 0 && cols+rc > budget {
			chunks = append(chunks, cur.String())
			cur.Reset()
			cols = 0
		}
		cur.WriteRune(r)
		cols += rc
	}
	if cols > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// Join renders wrapped lines as one document string.
func Join(lines []string) string {
	return strings.Join(lines, LineBreak)
}

// WrapString wraps text and joins the result with document line breaks.
func WrapString(text string, budget int) string {
	return Join(Wrap(text, budget))
}
