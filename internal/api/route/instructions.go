package route

import (
	"fmt"
	"strings"
)

// instructionTemplates maps maneuver type plus modifier to a readable
// instruction. The road name is substituted for %s.
var instructionTemplates = map[string]string{
	"depart":             "Head out on %s",
	"arrive":             "Arrive at your destination",
	"turn/left":          "Turn left onto %s",
	"turn/right":         "Turn right onto %s",
	"turn/straight":      "Continue straight on %s",
	"turn/slight left":   "Take a slight left onto %s",
	"turn/slight right":  "Take a slight right onto %s",
	"turn/sharp left":    "Take a sharp left onto %s",
	"turn/sharp right":   "Take a sharp right onto %s",
	"turn/uturn":         "Make a U-turn on %s",
	"continue":           "Continue on %s",
	"merge":              "Merge onto %s",
	"fork/left":          "Keep left onto %s",
	"fork/right":         "Keep right onto %s",
	"roundabout":         "Take the roundabout onto %s",
	"end of road/left":   "At the end of the road, turn left onto %s",
	"end of road/right":  "At the end of the road, turn right onto %s",
	"new name":           "Continue on %s",
}

const unnamedRoad = "the road"

// translateManeuver renders one routing-service maneuver as a
// human-readable instruction. Unrecognized types fall back to a generic
// continue instruction.
func translateManeuver(m Maneuver) string {
	road := m.RoadName
	if road == "" {
		road = unnamedRoad
	}

	tpl, ok := instructionTemplates[m.Type+"/"+m.Modifier]
	if !ok {
		tpl, ok = instructionTemplates[m.Type]
	}
	if !ok {
		tpl = "Continue on %s"
	}

	if !strings.Contains(tpl, "%s") {
		return tpl
	}
	return fmt.Sprintf(tpl, road)
}
