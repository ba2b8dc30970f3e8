package game

// Advance moves c one step along Hidden → Question → Answer and returns the
// text the cell should now display.
//
// From Answer there is no transition: the answer is returned again and c is
// left untouched. Advance reads and writes nothing but c.
func Advance(c *Clue) string {
	switch c.State {
	case Hidden:
		c.State = Question
		return c.Question
	case Question:
		c.State = Answer
		return c.Answer
	default:
		return c.Answer
	}
}

// DisplayText returns what a cell shows for c in its current state.
func (c *Clue) DisplayText() string {
	switch c.State {
	case Question:
		return c.Question
	case Answer:
		return c.Answer
	default:
		return HiddenText
	}
}
