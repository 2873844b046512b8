package domain

// AnalysisCollection is an ordered batch of analyses submitted together.
type AnalysisCollection struct {
	Title    string
	analyses []Analysis
}

// NewAnalysisCollection creates a collection holding analyses in order.
func NewAnalysisCollection(title string, analyses ...Analysis) *AnalysisCollection {
	return &AnalysisCollection{Title: title, analyses: analyses}
}

// Add appends an analysis.
func (c *AnalysisCollection) Add(a Analysis) {
	c.analyses = append(c.analyses, a)
}

// Analyses returns the analyses in submission order.
func (c *AnalysisCollection) Analyses() []Analysis {
	return c.analyses
}

// SetAnalyses replaces the whole batch.
func (c *AnalysisCollection) SetAnalyses(analyses []Analysis) {
	c.analyses = analyses
}

func (c *AnalysisCollection) Len() int {
	return len(c.analyses)
}

// AnalysisGroup groups collections for report layout only.
type AnalysisGroup struct {
	Title       string
	collections []*AnalysisCollection
}

func NewAnalysisGroup(title string) *AnalysisGroup {
	return &AnalysisGroup{Title: title}
}

func (g *AnalysisGroup) Add(c *AnalysisCollection) {
	g.collections = append(g.collections, c)
}

func (g *AnalysisGroup) Collections() []*AnalysisCollection {
	return g.collections
}

func (g *AnalysisGroup) Len() int {
	return len(g.collections)
}
