package ingest

import "slices"

// sampleNames is a demo roster for trying the tool without a real list.
// It mixes Chinese and English names.
var sampleNames = []string{
	// Chinese
	"王小明", "李大華", "張美麗", "陳志強", "林佩芬",
	"周杰倫", "蔡依林", "林俊傑", "蕭敬騰", "楊丞琳",
	"王大錘", "趙鐵柱", "李翠花", "張三", "李四",

	// English
	"James Bond", "Sherlock Holmes", "Tony Stark", "Bruce Wayne", "Diana Prince",
}

// SampleNames returns a copy of the demo roster
func SampleNames() []string {
	return slices.Clone(sampleNames)
}
