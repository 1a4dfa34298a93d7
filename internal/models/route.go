package models

// Waypoint is a POI the user added to the route. Identity is the coordinate pair only.
type Waypoint = Coordinate

// Alternative is one candidate polyline from origin to destination.
type Alternative []Coordinate
