package svg

// AreaPoint is one plotted value of a series.
type AreaPoint struct {
	Category string
	Value    float64
	Tooltip  string
}

// AreaSeries is one filled line of the area chart.
type AreaSeries struct {
	Name   string
	Points []AreaPoint
	// Stroke is a plain colour. Fill is a plain colour or a linear gradient written
	// as "l(angle) offset:colour ...".
	Stroke string
	Fill   string
}

// AreaOpts customises the area chart renderer.
type AreaOpts struct {
	Title         string
	Description   string
	Categories    []string
	AxisColor     string
	GridColor     string
	Padding       float64
	TickCount     int
	Smooth        bool
	StartOnZero   bool
	LegendOffsetY float64
	TickFormatter func(float64) string
	EmptyText     string
}

// Defaults for the deals chart.
const (
	DefaultWidth   = 720
	DefaultHeight  = 325
	DefaultPadding = 48.0
	DefaultTicks   = 4
)
