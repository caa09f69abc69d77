package rates

// AmountPair is the state of the two linked amount fields on a conversion screen.
// Input and Output hold the raw text the user sees; the field that was edited
// last is the driver and is never rewritten, the other one is derived
type AmountPair struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Direction Direction `json:"-"`

	driver Field
	err    error
}

// NewAmountPair creates an empty pair for the given direction, driven by input
func NewAmountPair(dir Direction) *AmountPair {
	return &AmountPair{
		Direction: dir,
		driver:    Input,
	}
}

// Driver returns the field currently driving the pair
func (p *AmountPair) Driver() Field {
	return p.driver
}

// Err returns the error of the last recomputation, if any
func (p *AmountPair) Err() error {
	return p.err
}

// EditInput sets the input text and recomputes the output
func (p *AmountPair) EditInput(raw string, table Table) {
	p.Input = raw
	p.driver = Input

	p.Recompute(table)
}

// EditOutput sets the output text and recomputes the input
func (p *AmountPair) EditOutput(raw string, table Table) {
	p.Output = raw
	p.driver = Output

	p.Recompute(table)
}

// SetDirection switches the direction and recomputes the derived field
func (p *AmountPair) SetDirection(dir Direction, table Table) {
	p.Direction = dir

	p.Recompute(table)
}

// Recompute refreshes the derived field from the driver, e.g. after a rate refresh
func (p *AmountPair) Recompute(table Table) {
	if p.driver == Output {
		p.Input, p.err = ConvertString(p.Output, p.Direction, table, Output)

		return
	}

	p.Output, p.err = ConvertString(p.Input, p.Direction, table, Input)
}
