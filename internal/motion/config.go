// Package motion holds the site's animation tuning, served to the front-end
// script that runs the scroll reveal, parallax and hover effects, and the
// per-frame coalescing used for widget render events.
package motion

import "time"

type RevealConfig struct {
	Selectors  []string      `json:"selectors"`
	Threshold  float64       `json:"threshold"`
	RootMargin string        `json:"root_margin"`
	OffsetY    float64       `json:"offset_y"`
	Stagger    time.Duration `json:"-"`
	StaggerMS  int64         `json:"stagger_ms"`
	Transition string        `json:"transition"`
}

type ParallaxConfig struct {
	GlowSelector    string  `json:"glow_selector"`
	ShapeSelector   string  `json:"shape_selector"`
	GlowBaseSpeed   float64 `json:"glow_base_speed"`
	GlowSpeedStep   float64 `json:"glow_speed_step"`
	GlowRotateRate  float64 `json:"glow_rotate_rate"`
	ShapeBaseSpeed  float64 `json:"shape_base_speed"`
	ShapeSpeedStep  float64 `json:"shape_speed_step"`
	ShapeScaleRate  float64 `json:"shape_scale_rate"`
	MouseRange      float64 `json:"mouse_range"`
	MouseBaseFactor float64 `json:"mouse_base_factor"`
	MouseFactorStep float64 `json:"mouse_factor_step"`
}

type NavConfig struct {
	Selector      string  `json:"selector"`
	ScrolledClass string  `json:"scrolled_class"`
	ScrolledAfter float64 `json:"scrolled_after"`
	AnchorOffset  float64 `json:"anchor_offset"`
}

type HoverConfig struct {
	RippleSelector  string  `json:"ripple_selector"`
	TiltSelector    string  `json:"tilt_selector"`
	TiltDivisor     float64 `json:"tilt_divisor"`
	TiltPerspective float64 `json:"tilt_perspective"`
	TiltLift        float64 `json:"tilt_lift"`
	TiltScale       float64 `json:"tilt_scale"`
	HeroSelector    string  `json:"hero_selector"`
	HeroBrightness  float64 `json:"hero_brightness"`
	PulseSelector   string  `json:"pulse_selector"`
	PulseAnimation  string  `json:"pulse_animation"`
}

type Config struct {
	Reveal   RevealConfig   `json:"reveal"`
	Parallax ParallaxConfig `json:"parallax"`
	Nav      NavConfig      `json:"nav"`
	Hover    HoverConfig    `json:"hover"`
}

func DefaultConfig() Config {
	stagger := 120 * time.Millisecond
	return Config{
		Reveal: RevealConfig{
			Selectors:  []string{".project", ".service", ".stat", ".about-content", ".section-head"},
			Threshold:  0.1,
			RootMargin: "-40px",
			OffsetY:    40,
			Stagger:    stagger,
			StaggerMS:  stagger.Milliseconds(),
			Transition: "opacity 1s cubic-bezier(0.16, 1, 0.3, 1), transform 1s cubic-bezier(0.16, 1, 0.3, 1)",
		},
		Parallax: ParallaxConfig{
			GlowSelector:    ".glow",
			ShapeSelector:   ".shape",
			GlowBaseSpeed:   0.04,
			GlowSpeedStep:   0.015,
			GlowRotateRate:  0.01,
			ShapeBaseSpeed:  0.06,
			ShapeSpeedStep:  0.025,
			ShapeScaleRate:  0.0001,
			MouseRange:      20,
			MouseBaseFactor: 0.5,
			MouseFactorStep: 0.3,
		},
		Nav: NavConfig{
			Selector:      ".nav",
			ScrolledClass: "scrolled",
			ScrolledAfter: 80,
			AnchorOffset:  80,
		},
		Hover: HoverConfig{
			RippleSelector:  ".btn-primary, .nav-btn",
			TiltSelector:    ".project",
			TiltDivisor:     20,
			TiltPerspective: 1000,
			TiltLift:        -8,
			TiltScale:       1.02,
			HeroSelector:    ".hero-title",
			HeroBrightness:  1.2,
			PulseSelector:   ".socials a",
			PulseAnimation:  "socialPulse 0.5s ease",
		},
	}
}
