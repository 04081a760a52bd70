package world

// registerDefaultHandlers installs the built-in behaviours. The pair table
// is fixed; kinds within a category are told apart by the handlers.
func (w *World) registerDefaultHandlers() {
	defaults := []struct {
		a, b Category
		h    Handler
	}{
		{CategoryPlayer, CategoryItem, Handler{OnBegin: playerHitItem}},
		{CategoryPlayer, CategoryBlock, Handler{OnBegin: playerHitBlock, OnSeparate: playerLeaveBlock}},
		{CategoryPlayer, CategoryMob, Handler{OnBegin: playerHitMob}},
		{CategoryMob, CategoryBlock, Handler{OnBegin: mobHitBlock}},
		{CategoryMob, CategoryMob, Handler{OnBegin: mobHitMob}},
		{CategoryMob, CategoryItem, Handler{OnBegin: mobHitItem}},
	}
	for _, d := range defaults {
		if err := w.AddCollisionHandler(d.a, d.b, d.h); err != nil {
			// The table above is static; a failure here is a programming error.
			panic(err)
		}
	}
}
