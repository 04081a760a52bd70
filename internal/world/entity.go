package world

import (
	"fmt"
	"strings"

	"github.com/brickworld/brickworld/internal/core/ecs"
	"github.com/brickworld/brickworld/internal/physics"
)

// Category keys collision handler registration.
type Category uint8

const (
	CategoryPlayer Category = iota + 1
	CategoryBlock
	CategoryItem
	CategoryMob
)

// Categories lists every valid category in registration order.
var Categories = []Category{CategoryPlayer, CategoryBlock, CategoryItem, CategoryMob}

func (c Category) Valid() bool { return c >= CategoryPlayer && c <= CategoryMob }

func (c Category) String() string {
	switch c {
	case CategoryPlayer:
		return "player"
	case CategoryBlock:
		return "block"
	case CategoryItem:
		return "item"
	case CategoryMob:
		return "mob"
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory maps a data-file name onto a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player":
		return CategoryPlayer, nil
	case "block":
		return CategoryBlock, nil
	case "item":
		return CategoryItem, nil
	case "mob":
		return CategoryMob, nil
	}
	return 0, fmt.Errorf("%w: unknown category %q", ErrConfiguration, s)
}

// Kind is the behavioural variant of an entity within its category.
type Kind string

const (
	KindPlayer Kind = "player"

	KindBrick        Kind = "brick"
	KindBrickBase    Kind = "brick_base"
	KindCube         Kind = "cube"
	KindMysteryEmpty Kind = "mystery_empty"
	KindMysteryCoin  Kind = "mystery_coin"
	KindBounce       Kind = "bounce"
	KindSwitch       Kind = "switch"
	KindFlag         Kind = "flag"
	KindTunnel       Kind = "tunnel"

	KindCoin   Kind = "coin"
	KindStar   Kind = "star"
	KindFlower Kind = "flower"

	KindMushroom    Kind = "mushroom"
	KindGang        Kind = "gang"
	KindBulletLeft  Kind = "bullet_left"
	KindBulletRight Kind = "bullet_right"
)

// MobClass is the closed set of mob behaviours. Every mob kind maps to one.
type MobClass uint8

const (
	MobInert      MobClass = iota // no AI, destroyed by any other mob
	MobWalker                     // squishable, walks at its tempo, reverses on walls
	MobSeeker                     // squishable, walks toward the player
	MobProjectile                 // holds its launch velocity, dies on any contact
)

func (m MobClass) Squishable() bool { return m == MobWalker || m == MobSeeker }

func (m MobClass) String() string {
	switch m {
	case MobWalker:
		return "walker"
	case MobSeeker:
		return "seeker"
	case MobProjectile:
		return "projectile"
	}
	return "inert"
}

// MobClassOf returns the behaviour class for a mob kind.
func MobClassOf(k Kind) MobClass {
	switch k {
	case KindMushroom:
		return MobWalker
	case KindGang:
		return MobSeeker
	case KindBulletLeft, KindBulletRight:
		return MobProjectile
	}
	return MobInert
}

// KindSpec holds the physical parameters of a kind.
type KindSpec struct {
	Category Category
	Size     physics.Vec
	Mass     float64 // zero for static kinds
	Tempo    float64 // signed horizontal walking speed for mobs
}

const blockSize = 16

// DefaultKinds returns the built-in kind table.
func DefaultKinds() map[Kind]KindSpec {
	cell := physics.Vec{X: blockSize, Y: blockSize}
	return map[Kind]KindSpec{
		KindPlayer: {Category: CategoryPlayer, Size: cell, Mass: 100},

		KindBrick:        {Category: CategoryBlock, Size: cell},
		KindBrickBase:    {Category: CategoryBlock, Size: cell},
		KindCube:         {Category: CategoryBlock, Size: cell},
		KindMysteryEmpty: {Category: CategoryBlock, Size: cell},
		KindMysteryCoin:  {Category: CategoryBlock, Size: cell},
		KindBounce:       {Category: CategoryBlock, Size: cell},
		KindSwitch:       {Category: CategoryBlock, Size: cell},
		KindFlag:         {Category: CategoryBlock, Size: physics.Vec{X: 0.2 * blockSize, Y: 9 * blockSize}},
		KindTunnel:       {Category: CategoryBlock, Size: physics.Vec{X: 2 * blockSize, Y: 2 * blockSize}},

		KindCoin:   {Category: CategoryItem, Size: cell},
		KindStar:   {Category: CategoryItem, Size: cell},
		KindFlower: {Category: CategoryItem, Size: cell},

		KindMushroom:    {Category: CategoryMob, Size: cell, Mass: 800, Tempo: -30},
		KindGang:        {Category: CategoryMob, Size: cell, Mass: 800, Tempo: -80},
		KindBulletLeft:  {Category: CategoryMob, Size: physics.Vec{X: 12, Y: 12}, Mass: 40, Tempo: -300},
		KindBulletRight: {Category: CategoryMob, Size: physics.Vec{X: 12, Y: 12}, Mass: 40, Tempo: 300},
	}
}

// Body is the registry record shared by every entity. Pos and Vel mirror the
// physics backend; they are refreshed after each advance and before every
// handler call.
type Body struct {
	ID       ecs.EntityID
	Category Category
	Kind     Kind
	Pos      physics.Vec
	Vel      physics.Vec
	Size     physics.Vec
}

// Bounds returns the mirrored box.
func (b *Body) Bounds() physics.AABB { return physics.BoxAt(b.Pos, b.Size) }

func (b *Body) String() string {
	return fmt.Sprintf("%s/%s#%d", b.Category, b.Kind, b.ID.Index())
}

// SwitchPhase is the state of a brick switch.
type SwitchPhase uint8

const (
	SwitchReady SwitchPhase = iota
	SwitchCooling
)

func (p SwitchPhase) String() string {
	if p == SwitchCooling {
		return "cooling"
	}
	return "ready"
}

type SwitchState struct {
	Phase SwitchPhase
}

// BouncePhase gates the bounce pad impulse.
type BouncePhase uint8

const (
	BounceIdle BouncePhase = iota
	BounceBouncing
)

func (p BouncePhase) String() string {
	if p == BounceBouncing {
		return "bouncing"
	}
	return "idle"
}

type BounceState struct {
	Phase BouncePhase
}

type MysteryState struct {
	Active bool
	Drop   Kind // empty for blocks that only deactivate
}

type MobState struct {
	Class    MobClass
	Tempo    float64
	Squished bool
}

type ItemState struct {
	Value int // score value for coins
}
