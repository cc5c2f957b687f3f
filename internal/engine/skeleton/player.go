package skeleton

// Animatable is anything with selectable frames.
type Animatable interface {
	FrameCount() int
	SetFrame(i int) error
}

// Player turns elapsed time into discrete frames.
type Player struct {
	target  Animatable
	fps     float32
	loop    bool
	elapsed float32
	frame   int
	playing bool
}

// NewPlayer creates a playing player at frame 0.
func NewPlayer(target Animatable, fps float32, loop bool) *Player {
	if fps <= 0 {
		fps = 30
	}
	return &Player{target: target, fps: fps, loop: loop, playing: true}
}

// Playing reports whether Update advances frames.
func (p *Player) Playing() bool { return p.playing }

// Frame returns the last frame applied.
func (p *Player) Frame() int { return p.frame }

// Play resumes playback.
func (p *Player) Play() { p.playing = true }

// Pause stops advancing without resetting.
func (p *Player) Pause() { p.playing = false }

// Seek jumps to frame i and applies it.
func (p *Player) Seek(i int) error {
	if err := p.target.SetFrame(i); err != nil {
		return err
	}
	p.frame = i
	p.elapsed = float32(i) / p.fps
	return nil
}

// Update advances playback by dt seconds and applies the resulting frame.
// A non-looping player stops on its last frame.
func (p *Player) Update(dt float32) error {
	if !p.playing {
		return nil
	}
	n := p.target.FrameCount()
	if n == 0 {
		return nil
	}
	p.elapsed += dt
	period := float32(n) / p.fps
	if p.loop {
		for p.elapsed >= period {
			p.elapsed -= period
		}
	}
	frame := int(p.elapsed * p.fps)
	if frame >= n {
		frame = n - 1
		if !p.loop {
			p.playing = false
		}
	}
	if err := p.target.SetFrame(frame); err != nil {
		return err
	}
	p.frame = frame
	return nil
}
