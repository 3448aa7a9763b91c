package keywords

// Default returns the livestock vocabulary used when a keywords file is
// initialized.
func Default() []string {
	return []string{
		"animal", "beef", "butter", "cheese", "cream", "dairy",
		"deforestation", "disease", "drought", "egg", "eggs", "efficiency",
		"export", "feed", "flock", "fodder", "forage", "genetics", "goat",
		"grains", "grazing", "health", "herd", "import", "lamb", "livestock",
		"manure", "market", "meat", "milk", "mutton", "pasture", "pork",
		"poultry", "protein", "resilience", "supplements", "vet", "waste",
		"yogurt", "zoonotic",
	}
}
