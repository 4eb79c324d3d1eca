package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/savanna/components"
)

// Prey is the decision core of one prey. Each cycle it picks a single
// behavior in priority order: flee, disperse, forage, flock, wander.
type Prey struct {
	body

	inbox         <-chan Signal
	mode          components.PreyMode
	age           int
	cycle         int
	reproCooldown int
}

// NewPrey registers a prey and returns its core. inbox receives SignalDie
// when a predator captures it; nil means the prey is never signalled.
func NewPrey(env Env, args components.SpawnArgs, inbox <-chan Signal) *Prey {
	cfg := &env.Config.Prey
	defaults := components.Genetics{Speed: cfg.Speed, Vision: cfg.Vision}
	return &Prey{
		body:  newBody(env, components.KindPrey, args, cfg.EnergyStart, cfg.MaxStamina, defaults),
		inbox: inbox,
	}
}

// Mode returns the behavior selected in the last cycle.
func (p *Prey) Mode() components.PreyMode { return p.mode }

// Step runs one prey cycle.
func (p *Prey) Step() bool {
	if p.dead {
		return false
	}

	select {
	case sig := <-p.inbox:
		if sig == SignalDie {
			// The capturing predator already tallied the death
			p.Shutdown()
			return false
		}
	default:
	}

	cfg := &p.env.Config.Prey

	p.age++
	p.cycle++
	if p.reproCooldown > 0 {
		p.reproCooldown--
	}
	if p.cycle%cfg.MetabolismInterval == 0 {
		loss := cfg.MetabolismLoss
		if p.genes.Speed > cfg.Speed*cfg.FastGeneRatio {
			loss++
		}
		p.energy -= loss
	}
	if p.energy <= 0 {
		p.energy = 0
		p.die(components.CausePreyStarved)
		return false
	}
	if cfg.MaxAge > 0 && p.age > cfg.MaxAge {
		p.die(components.CausePreyOldAge)
		return false
	}

	visible := p.perceive()
	predators := ofKind(visible, components.KindPredator)
	herd := ofKind(visible, components.KindPrey)
	factor := p.speedFactor()

	switch {
	case len(predators) > 0:
		p.mode = components.ModeFlee
		p.flee(predators, factor)
	case len(herd) > cfg.CrowdThreshold:
		p.mode = components.ModeDisperse
		p.disperse(herd, cfg.DisperseRate, cfg.DisperseJitter, p.genes.Speed*factor)
	case p.forage(factor):
		p.mode = components.ModeForage
	case len(herd) > 0:
		p.mode = components.ModeFlock
		p.flock(herd, factor)
	default:
		p.mode = components.ModeWander
		p.wander(p.genes.Speed*cfg.CruiseFactor*factor, cfg.WanderJitter, cfg.Margin)
	}

	if p.mode != components.ModeFlee {
		p.stamina = min(p.stamina+1, cfg.MaxStamina)
		p.tryReproduce(len(herd))
	}
	return p.writeBack(cfg.Margin)
}

// flee runs straight away from the centroid of the visible predators,
// sprinting while stamina lasts.
func (p *Prey) flee(predators []components.Snapshot, factor float64) {
	cfg := &p.env.Config.Prey

	away := r2.Sub(p.pos, Centroid(positions(predators)))
	if r2.Norm(away) == 0 {
		away = FromHeading(p.heading)
	}

	mult := cfg.TiredMultiplier
	if p.stamina > cfg.FleeStaminaFloor {
		mult = cfg.FleeMultiplier
		p.stamina = max(p.stamina-cfg.FleeDrain, 0)
	}
	p.heading = Heading(away)
	p.pos = MoveToward(p.pos, away, p.genes.Speed*mult*factor)
}

// forage heads for the nearest food within the search radius and eats it
// once within reach. It reports false when no food is in range.
func (p *Prey) forage(factor float64) bool {
	cfg := &p.env.Config.Prey
	if p.env.Food == nil {
		return false
	}
	item, ok := p.env.Food.FindNearest(p.pos, cfg.FoodSearchRadius)
	if !ok {
		return false
	}

	dist := Distance(p.pos, item.Pos)
	if dist <= cfg.EatDistance {
		if p.env.Food.Consume(item) {
			p.energy = min(p.energy+item.Energy, cfg.EnergyMax)
			p.env.recorder().RecordForage(item.Energy)
		} else {
			p.env.recorder().RecordContestLost(components.KindPrey)
		}
		return true
	}

	speed := p.genes.Speed * cfg.CruiseFactor * factor
	if p.energy < cfg.HungryEnergy {
		speed *= cfg.HungryMultiplier
	}
	p.heading = Heading(r2.Sub(item.Pos, p.pos))
	p.pos = MoveTo(p.pos, item.Pos, min(speed, dist))
	return true
}

// flock combines separation from close neighbours, cohesion toward the local
// centroid and the persistent wander heading.
func (p *Prey) flock(herd []components.Snapshot, factor float64) {
	cfg := &p.env.Config.Prey

	var sep r2.Vec
	var near []r2.Vec
	for _, o := range herd {
		d := Distance(p.pos, o.Pos)
		if d > 0 && d < cfg.SeparationRadius {
			sep = r2.Add(sep, r2.Scale(1/d, r2.Sub(p.pos, o.Pos)))
		}
		if d <= cfg.FlockingRadius {
			near = append(near, o.Pos)
		}
	}
	var coh r2.Vec
	if len(near) > 0 {
		coh = r2.Scale(cfg.CohesionRate, r2.Sub(Centroid(near), p.pos))
	}

	p.heading += (p.rng.Float64() - 0.5) * cfg.FlockJitter
	dir := r2.Add(
		r2.Add(r2.Scale(cfg.SeparationWeight, sep), r2.Scale(cfg.CohesionWeight, coh)),
		r2.Scale(cfg.WanderWeight, FromHeading(p.heading)),
	)
	if r2.Norm(dir) == 0 {
		dir = FromHeading(p.heading)
	}
	p.heading = Heading(dir)
	p.pos = MoveToward(p.pos, dir, p.genes.Speed*cfg.CruiseFactor*factor)

	w, h := p.env.Registry.Bounds()
	p.heading = normalizeAngle(bounceHeading(p.heading, p.pos, w, h, cfg.Margin))
}

func (p *Prey) tryReproduce(herdSize int) {
	cfg := &p.env.Config.Prey
	if p.energy < cfg.ReproThreshold || p.reproCooldown > 0 {
		return
	}
	if herdSize < cfg.MinHerd || herdSize >= cfg.HerdCap || p.rng.Float64() >= cfg.ReproChance {
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
