package main

// Wire protocol tag expected by the vest daemon's JSON parser.
const wireCmdTag = "armareforger_event"

// Event categories. These mirror the vocabulary the vest daemon's game
// integration understands; the hooks only ever send these literals.
const (
	CategoryPlayerDamage     = "player_damage"
	CategoryPlayerDeath      = "player_death"
	CategoryPlayerHeal       = "player_heal"
	CategoryPlayerSuppressed = "player_suppressed"

	CategoryWeaponFireRifle    = "weapon_fire_rifle"
	CategoryWeaponFireMG       = "weapon_fire_mg"
	CategoryWeaponFirePistol   = "weapon_fire_pistol"
	CategoryWeaponFireLauncher = "weapon_fire_launcher"
	CategoryWeaponReload       = "weapon_reload"
	CategoryGrenadeThrow       = "grenade_throw"

	CategoryVehicleCollision = "vehicle_collision"
	CategoryVehicleDamage    = "vehicle_damage"
	CategoryVehicleExplosion = "vehicle_explosion"
	CategoryHelicopterRotor  = "helicopter_rotor"

	CategoryExplosionNearby  = "explosion_nearby"
	CategoryBulletImpactNear = "bullet_impact_near"
)

// knownCategories is the closed vocabulary accepted by the bridge.
var knownCategories = map[string]struct{}{
	CategoryPlayerDamage:       {},
	CategoryPlayerDeath:        {},
	CategoryPlayerHeal:         {},
	CategoryPlayerSuppressed:   {},
	CategoryWeaponFireRifle:    {},
	CategoryWeaponFireMG:       {},
	CategoryWeaponFirePistol:   {},
	CategoryWeaponFireLauncher: {},
	CategoryWeaponReload:       {},
	CategoryGrenadeThrow:       {},
	CategoryVehicleCollision:   {},
	CategoryVehicleDamage:      {},
	CategoryVehicleExplosion:   {},
	CategoryHelicopterRotor:    {},
	CategoryExplosionNearby:    {},
	CategoryBulletImpactNear:   {},
}

// Daemon connection defaults.
const (
	defaultDaemonHost = "127.0.0.1"
	defaultDaemonPort = 5050

	defaultDialTimeoutMS       = 2000
	defaultWriteTimeoutMS      = 1000
	defaultReconnectCooldownMS = 5000 // matches the vest daemon's expected client behavior
	defaultSubmitQueueSize     = 64
)

// Debounce defaults (milliseconds).
//
// Continuous categories (rotor wash) fire every simulation tick while the
// phenomenon lasts; impact/suppression categories arrive in short bursts.
const (
	defaultContinuousIntervalMS = 200
	defaultImpactIntervalMS     = 500
)

// Intensity override bounds. The daemon treats intensity as a 1-10 scale;
// 0 means "not set" and is omitted from the wire message.
const (
	intensityMax = 10.0
)
