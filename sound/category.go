package sound

// CategoryOption is the per-category {user_gain, game_gain} pair. A
// distinguished master category composes multiplicatively on top of every
// other category.
type CategoryOption struct {
	UserGain float64
	GameGain float64
}

// masterCategory is the reserved category key for the master bus; callers
// never create cues in it directly.
const masterCategory = ""

func defaultCategoryOption() CategoryOption {
	return CategoryOption{UserGain: 1, GameGain: 1}
}

// categoryOf returns the live CategoryOption for name, creating a default
// one (gains at unity) on first reference.
func (e *Engine) categoryOf(name string) *CategoryOption {
	opt, ok := e.categories[name]
	if !ok {
		v := defaultCategoryOption()
		opt = &v
		e.categories[name] = opt
	}
	return opt
}

// composedGain is the gain written to the voice at step 1:
// cue.gain × cat.user × cat.game × master.user × master.game.
func (e *Engine) composedGain(cueGain float64, category string) float64 {
	cat := e.categoryOf(category)
	master := e.categoryOf(masterCategory)
	return cueGain * cat.UserGain * cat.GameGain * master.UserGain * master.GameGain
}

// SetCategoryGain sets the user/game gain pair for category, or for the
// master bus when category is "".
func (e *Engine) SetCategoryGain(category string, userGain, gameGain float64) {
	opt := e.categoryOf(category)
	opt.UserGain = userGain
	opt.GameGain = gameGain
}

// SetMasterGain sets the master bus's user/game gain pair.
func (e *Engine) SetMasterGain(userGain, gameGain float64) {
	e.SetCategoryGain(masterCategory, userGain, gameGain)
}
