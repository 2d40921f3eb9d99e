package memory

import "mechedu-quiz-service/internal/domain"

// DefaultContent is the built-in mechanical engineering catalog. It backs the static
// fallback list and the seed command.
func DefaultContent() Content {
	return Content{
		Quizzes: []domain.QuizDefinition{
			{ID: "turning", Title: "Turning Fundamentals", Description: "Lathe operations, cutting speed and feed.", Process: "machining", Available: true},
			{ID: "milling", Title: "Milling Operations", Description: "Cutters, climb vs conventional milling and chip load.", Process: "machining", Available: true},
			{ID: "gears", Title: "Gear Design", Description: "Module, pitch diameter and gear ratios.", Process: "design", Available: true},
			{ID: "tolerances", Title: "Fits and Tolerances", Description: "ISO limits and fits, clearance and interference.", Process: "metrology", Available: true},
			{ID: "materials", Title: "Engineering Materials", Description: "Steels, alloys and their properties.", Process: "materials", Available: true},
		},
		Questions: map[string][]domain.Question{
			"turning": {
				q("turning-b1", domain.LevelBasic, "Which machine tool is used for turning?", 1, "Turning is performed on a lathe where the workpiece rotates.", "Milling machine", "Lathe", "Shaper", "Drill press"),
				q("turning-b2", domain.LevelBasic, "In turning, which element rotates?", 0, "The workpiece rotates while the tool feeds linearly.", "Workpiece", "Cutting tool", "Both", "Neither"),
				q("turning-b3", domain.LevelBasic, "Cutting speed is usually expressed in:", 2, "Cutting speed is the surface speed, in metres per minute.", "rpm", "mm/rev", "m/min", "N"),
				q("turning-b4", domain.LevelBasic, "Feed in turning is measured in:", 1, "Feed is the tool advance per spindle revolution.", "m/min", "mm/rev", "rpm", "mm"),
				q("turning-b5", domain.LevelBasic, "Facing produces a surface that is:", 3, "Facing machines the end of the part, perpendicular to the axis.", "Conical", "Threaded", "Cylindrical", "Flat and perpendicular to the axis"),
				q("turning-i1", domain.LevelIntermediate, "A 50 mm bar is turned at 100 m/min. Spindle speed is closest to:", 2, "n = 1000·v / (π·D) = 100000 / (π·50) ≈ 637 rpm.", "318 rpm", "500 rpm", "637 rpm", "1000 rpm"),
				q("turning-i2", domain.LevelIntermediate, "Increasing the nose radius generally:", 0, "A larger nose radius reduces the theoretical peak-to-valley roughness.", "Improves surface finish", "Reduces tool life", "Increases chatter-free depth", "Has no effect"),
				q("turning-a1", domain.LevelAdvanced, "Taylor's tool life equation is:", 1, "V·T^n = C relates cutting speed and tool life.", "V·T = n", "V·T^n = C", "T = C·V", "V^n·T = 1"),
				q("turning-a2", domain.LevelAdvanced, "Built-up edge is most likely at:", 0, "Low cutting speeds with ductile materials favour built-up edge.", "Low speed, ductile work material", "High speed, brittle material", "Any speed with coolant", "High feed with ceramics"),
			},
			"milling": {
				q("milling-b1", domain.LevelBasic, "In milling, the cutting tool:", 0, "The multi-tooth cutter rotates while the work feeds.", "Rotates", "Is stationary", "Reciprocates", "Oscillates"),
				q("milling-b2", domain.LevelBasic, "Climb milling is also called:", 1, "In down milling the cutter rotation matches the feed direction.", "Up milling", "Down milling", "Face milling", "Plunge milling"),
				q("milling-b3", domain.LevelBasic, "Feed per tooth is also called:", 2, "Chip load is the material removed by each tooth.", "Cutting speed", "Depth of cut", "Chip load", "Stepover"),
				q("milling-i1", domain.LevelIntermediate, "Table feed for 4 teeth, 0.1 mm/tooth, 1000 rpm:", 3, "vf = fz · z · n = 0.1 · 4 · 1000 = 400 mm/min.", "100 mm/min", "250 mm/min", "40 mm/min", "400 mm/min"),
				q("milling-a1", domain.LevelAdvanced, "Climb milling needs a machine with:", 0, "Backlash lets the cutter pull the table in climb milling.", "Backlash elimination", "A vertical spindle", "Flood coolant", "A rotary table"),
			},
			"gears": {
				q("gears-b1", domain.LevelBasic, "The module of a spur gear is:", 1, "m = d / z, pitch diameter over tooth count.", "Tooth count / diameter", "Pitch diameter / tooth count", "Circular pitch · π", "Addendum / 2"),
				q("gears-b2", domain.LevelBasic, "Two meshing gears must share the same:", 2, "Meshing gears need the same module and pressure angle.", "Tooth count", "Face width", "Module", "Bore"),
				q("gears-b3", domain.LevelBasic, "Standard pressure angle for most modern gears:", 1, "20° is the common standard.", "14.5°", "20°", "25°", "30°"),
				q("gears-i1", domain.LevelIntermediate, "Pitch diameter of a 40 tooth gear, module 2:", 0, "d = m · z = 2 · 40 = 80 mm.", "80 mm", "20 mm", "42 mm", "160 mm"),
				q("gears-a1", domain.LevelAdvanced, "Minimum teeth to avoid undercut at 20° (full depth):", 3, "z_min = 2 / sin²(20°) ≈ 17.", "12", "14", "32", "17"),
			},
			"tolerances": {
				q("tol-b1", domain.LevelBasic, "In the fit H7/g6, the hole tolerance is:", 0, "Upper-case letters denote holes.", "H7", "g6", "Both", "Neither"),
				q("tol-b2", domain.LevelBasic, "A clearance fit always has:", 1, "The smallest hole is larger than the largest shaft.", "Interference", "Positive clearance", "Zero allowance", "A press requirement"),
				q("tol-i1", domain.LevelIntermediate, "H7/p6 is typically a:", 2, "p6 shafts give a light interference with H7 holes.", "Clearance fit", "Transition fit", "Interference fit", "Running fit"),
				q("tol-a1", domain.LevelAdvanced, "The fundamental deviation of an H hole is:", 0, "For H holes the lower deviation is zero.", "Zero", "Negative", "Equal to IT grade", "Always 0.01 mm"),
			},
			"materials": {
				q("mat-b1", domain.LevelBasic, "Steel is an alloy of iron and:", 1, "Carbon is the principal alloying element of steel.", "Copper", "Carbon", "Tin", "Zinc"),
				q("mat-b2", domain.LevelBasic, "Stainless steel resists corrosion mainly due to:", 2, "Chromium forms a passive oxide film.", "Nickel", "Manganese", "Chromium", "Sulfur"),
				q("mat-i1", domain.LevelIntermediate, "Young's modulus of steel is about:", 3, "Steel is stiff, E ≈ 200-210 GPa.", "70 GPa", "110 GPa", "20 GPa", "200 GPa"),
				q("mat-a1", domain.LevelAdvanced, "Quenching plain carbon steel from austenite forms:", 0, "Rapid cooling traps carbon producing martensite.", "Martensite", "Pearlite", "Ferrite", "Cementite only"),
			},
		},
	}
}

func q(id string, level domain.Level, prompt string, correct int, explanation string, options ...string) domain.Question {
	return domain.Question{
		ID:            id,
		Prompt:        prompt,
		Options:       options,
		CorrectOption: correct,
		Explanation:   explanation,
		Level:         level,
	}
}
