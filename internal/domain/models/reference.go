package models

// Commodity is a tracked staple good (Bapokting) with its unit of measure.
type Commodity struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name" binding:"required"`
	Unit     string `json:"unit" yaml:"unit"`
	Category string `json:"category" yaml:"category"`
	Active   bool   `json:"is_active" yaml:"active"`
}

// Market is a physical trading location being monitored.
type Market struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name" binding:"required"`
	Address string `json:"address" yaml:"address"`
	Active  bool   `json:"is_active" yaml:"active"`
}
