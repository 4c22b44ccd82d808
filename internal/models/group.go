package models

import "sort"

// DefaultGroup holds lights without a configured group
const DefaultGroup = "Lights"

// Group is a named set of lights shown together
type Group struct {
	// Group name from the config
	Name string
	// Lights in this group
	Lights []*Light
	// Calculated state: all lights are on
	AllOn bool
	// Calculated state: at least one light is on
	AnyOn bool
}

// UpdateState recalculates AllOn and AnyOn based on light states
func (g *Group) UpdateState() {
	if len(g.Lights) == 0 {
		g.AllOn = false
		g.AnyOn = false
		return
	}

	g.AllOn = true
	g.AnyOn = false

	for _, light := range g.Lights {
		if light.On {
			g.AnyOn = true
		} else {
			g.AllOn = false
		}
	}
}

// LightByAddress finds a light in this group by address
func (g *Group) LightByAddress(address string) *Light {
	for _, light := range g.Lights {
		if light.Address == address {
			return light
		}
	}
	return nil
}

// AverageBrightness returns the average brightness of all on lights
func (g *Group) AverageBrightness() int {
	var total int
	var count int
	for _, light := range g.Lights {
		if light.On {
			total += int(light.Brightness())
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return total / count
}

// ConnectedLights returns only the lights with a live session
func (g *Group) ConnectedLights() []*Light {
	var connected []*Light
	for _, light := range g.Lights {
		if light.Connected {
			connected = append(connected, light)
		}
	}
	return connected
}

// GroupLights buckets lights by their Group field. Groups are sorted by name
// and lights keep their input order.
func GroupLights(lights []*Light) []*Group {
	byName := make(map[string]*Group)
	var order []string

	for _, light := range lights {
		name := light.Group
		if name == "" {
			name = DefaultGroup
		}
		g, ok := byName[name]
		if !ok {
			g = &Group{Name: name}
			byName[name] = g
			order = append(order, name)
		}
		g.Lights = append(g.Lights, light)
	}

	sort.Strings(order)
	groups := make([]*Group, len(order))
	for i, name := range order {
		groups[i] = byName[name]
		groups[i].UpdateState()
	}
	return groups
}
