package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
)

// Predator is the decision core of one predator: a three-state machine
// (scouting, hunting, resting) driven by stamina and the eating cooldown.
type Predator struct {
	body

	state         components.PredatorState
	cycle         int
	eatCooldown   int
	reproCooldown int
}

// NewPredator registers a predator and returns its core. The predator starts
// scouting with full stamina and the configured starting energy.
func NewPredator(env Env, args components.SpawnArgs) *Predator {
	cfg := &env.Config.Predator
	defaults := components.Genetics{Speed: cfg.Speed, Vision: cfg.Vision}
	return &Predator{
		body:  newBody(env, components.KindPredator, args, cfg.EnergyStart, cfg.MaxStamina, defaults),
		state: components.StateScouting,
	}
}

// State returns the current state.
func (p *Predator) State() components.PredatorState { return p.state }

// Step runs one predator cycle.
func (p *Predator) Step() bool {
	if p.dead {
		return false
	}
	cfg := &p.env.Config.Predator

	p.cycle++
	if p.eatCooldown > 0 {
		p.eatCooldown--
	}
	if p.reproCooldown > 0 {
		p.reproCooldown--
	}
	if p.cycle%cfg.MetabolismInterval == 0 {
		p.energy -= cfg.MetabolismLoss
	}
	if p.energy <= 0 {
		p.energy = 0
		p.die(components.CausePredatorStarved)
		return false
	}

	visible := p.perceive()
	prey := ofKind(visible, components.KindPrey)
	mates := ofKind(visible, components.KindPredator)

	switch p.state {
	case components.StateResting:
		p.rest()
	case components.StateHunting:
		p.hunt(prey)
	default:
		p.scout(prey, mates)
	}

	if !p.writeBack(cfg.Margin) {
		return false
	}
	p.tryReproduce(len(mates))
	return true
}

func (p *Predator) rest() {
	cfg := &p.env.Config.Predator
	p.stamina += cfg.RestRegen
	if p.stamina >= cfg.MaxStamina {
		p.stamina = cfg.MaxStamina
		p.state = components.StateScouting
	}
}

func (p *Predator) hunt(prey []components.Snapshot) {
	cfg := &p.env.Config.Predator

	drain := cfg.HuntDrain
	if p.env.Terrain.InSwamp(p.pos) {
		drain = cfg.SwampHuntDrain
	}
	p.stamina -= drain
	if p.stamina <= 0 {
		p.stamina = 0
		p.state = components.StateResting
		return
	}
	if len(prey) == 0 {
		p.state = components.StateScouting
		return
	}

	target, dist := nearest(p.pos, prey)
	if dist <= cfg.CaptureDistance && p.eatCooldown == 0 {
		p.capture(target)
		return
	}

	step := min(p.genes.Speed*cfg.SprintMultiplier*p.speedFactor(), dist)
	if toward := r2.Sub(target.Pos, p.pos); r2.Norm(toward) > 0 {
		p.heading = Heading(toward)
	}
	p.pos = MoveTo(p.pos, target.Pos, step)

	// Bumping into any prey on the way counts as well
	if p.eatCooldown == 0 {
		if s, ok := p.env.Registry.QueryPreyNear(p.pos); ok {
			p.capture(s)
		}
	}
}

// capture removes prey and credits the kill. It reports false when another
// predator or the prey's own death got there first; the chase then goes on.
// A predator that has itself been unregistered never captures.
func (p *Predator) capture(prey components.Snapshot) bool {
	cfg := &p.env.Config.Predator
	removed, live := p.env.Registry.Capture(p.handle, prey.Handle, components.CausePreyHunted)
	if !live {
		p.dead = true
		return false
	}
	if !removed {
		p.env.recorder().RecordContestLost(components.KindPredator)
		return false
	}
	p.env.Host.Send(prey.Handle, SignalDie)

	p.energy = min(p.energy+cfg.CaptureGain, cfg.EnergyMax)
	p.eatCooldown = cfg.EatingCooldown
	p.state = components.StateScouting
	return true
}

func (p *Predator) scout(prey, mates []components.Snapshot) {
	cfg := &p.env.Config.Predator

	p.stamina = min(p.stamina+cfg.ScoutRegen, cfg.MaxStamina)

	if len(prey) > 0 && p.stamina > cfg.HuntStaminaThreshold && p.eatCooldown == 0 {
		p.state = components.StateHunting
		return
	}

	speed := p.genes.Speed * cfg.PatrolFactor * p.speedFactor()
	if len(mates) > cfg.CrowdCap {
		p.disperse(mates, cfg.DisperseRate, cfg.DisperseJitter, speed)
		return
	}

	if cue, ok := p.packCue(mates); ok {
		toward := Heading(r2.Sub(cue, p.pos))
		p.heading += cfg.PackCueWeight * normalizeAngle(toward-p.heading)
	}
	p.wander(speed, cfg.WanderJitter, cfg.Margin)
}

// packCue returns the position of a visible pack mate that has prey close by.
func (p *Predator) packCue(mates []components.Snapshot) (r2.Vec, bool) {
	radius := p.env.Config.Predator.PackCueRadius
	if radius <= 0 {
		return r2.Vec{}, false
	}
	for _, m := range mates {
		for _, s := range p.env.Registry.QueryNearby(m.Handle, m.Pos, radius) {
			if s.IsPrey() {
				return m.Pos, true
			}
		}
	}
	return r2.Vec{}, false
}

func (p *Predator) tryReproduce(nearbyMates int) {
	cfg := &p.env.Config.Predator
	if p.state == components.StateHunting || p.energy < cfg.ReproThreshold || p.reproCooldown > 0 {
		return
	}
	if nearbyMates >= cfg.ReproDensityCap || p.rng.Float64() >= cfg.ReproChance {
		return
	}

	genes := p.offspring(p.env.Config.Mutation.Spread,
		components.Genetics{Speed: cfg.MinSpeed, Vision: cfg.MinVision},
		components.Genetics{Speed: cfg.MaxSpeed, Vision: cfg.MaxVision})
	if !p.spawnChild(genes, cfg.OffspringSpread) {
		return
	}
	p.energy -= cfg.ReproCost
	p.reproCooldown = cfg.ReproCooldown
}
