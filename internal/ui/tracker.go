package ui

import (
	"sync"
	"time"
)

// ProgressTracker holds progress state shared between the renderer and
// the bubbletea model. It is safe for concurrent use.
type ProgressTracker struct {
	mu          sync.RWMutex
	stage       Stage
	current     int
	total       int
	currentFile string
	stageStart  time.Time
	errors      int
	warnings    int
	now         func() time.Time
}

// ProgressStats is a snapshot of a ProgressTracker.
type ProgressStats struct {
	Stage       Stage
	Current     int
	Total       int
	Progress    float64
	Rate        float64
	ETA         time.Duration
	CurrentFile string
	ErrorCount  int
	WarnCount   int
}

// NewProgressTracker creates a tracker in the scanning stage.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{stage: StageScanning, stageStart: time.Now(), now: time.Now}
}

// SetStage moves to stage with the given item total.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stage = stage
	p.total = total
	p.current = 0
	p.currentFile = ""
	p.stageStart = p.now()
}

// Update records the current item count and file.
func (p *ProgressTracker) Update(current int, file string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	if file != "" {
		p.currentFile = file
	}
}

// AddError counts an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if event.IsWarn {
		p.warnings++
	} else {
		p.errors++
	}
}

// Stats returns a snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := ProgressStats{
		Stage:       p.stage,
		Current:     p.current,
		Total:       p.total,
		CurrentFile: p.currentFile,
		ErrorCount:  p.errors,
		WarnCount:   p.warnings,
	}
	if p.total > 0 {
		s.Progress = float64(p.current) / float64(p.total)
		if s.Progress > 1 {
			s.Progress = 1
		}
	}

	elapsed := p.now().Sub(p.stageStart).Seconds()
	if elapsed > 0 && p.current > 0 {
		s.Rate = float64(p.current) / elapsed
		if remaining := p.total - p.current; remaining > 0 {
			s.ETA = time.Duration(float64(remaining) / s.Rate * float64(time.Second))
		}
	}
	return s
}
