package model

import (
	"strings"
	"time"
)

// KillChainPhase places a Diamond event on the intrusion kill chain
type KillChainPhase string

const (
	PhaseRecon         KillChainPhase = "recon"
	PhaseWeaponization KillChainPhase = "weaponization"
	PhaseDelivery      KillChainPhase = "delivery"
	PhaseExploitation  KillChainPhase = "exploitation"
	PhaseInstallation  KillChainPhase = "installation"
	PhaseC2            KillChainPhase = "c2"
	PhaseActions       KillChainPhase = "actions"
)

// KillChainPhases lists the phases in kill chain order
var KillChainPhases = []KillChainPhase{
	PhaseRecon, PhaseWeaponization, PhaseDelivery, PhaseExploitation,
	PhaseInstallation, PhaseC2, PhaseActions,
}

var killChainLabels = map[KillChainPhase]string{
	PhaseRecon:         "Reconnaissance",
	PhaseWeaponization: "Weaponization",
	PhaseDelivery:      "Delivery",
	PhaseExploitation:  "Exploitation",
	PhaseInstallation:  "Installation",
	PhaseC2:            "Command & Control",
	PhaseActions:       "Actions on Objectives",
}

// Valid reports whether p is a known phase
func (p KillChainPhase) Valid() bool {
	_, ok := killChainLabels[p]
	return ok
}

// Label returns the display name of the phase
func (p KillChainPhase) Label() string {
	if label, ok := killChainLabels[p]; ok {
		return label
	}
	return string(p)
}

// Confidence is the analyst's confidence in a Diamond event
type Confidence string

const (
	ConfidenceConfirmed Confidence = "Confirmed"
	ConfidenceProbable  Confidence = "Probable"
	ConfidencePossible  Confidence = "Possible"
	ConfidenceDoubtful  Confidence = "Doubtful"
)

// Confidences lists the confidence grades, strongest first
var Confidences = []Confidence{ConfidenceConfirmed, ConfidenceProbable, ConfidencePossible, ConfidenceDoubtful}

// Valid reports whether c is a known grade
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceConfirmed, ConfidenceProbable, ConfidencePossible, ConfidenceDoubtful:
		return true
	default:
		return false
	}
}

// SourceReliability is the Admiralty grade (A to F) of the reporting source
type SourceReliability string

const (
	ReliabilityA SourceReliability = "A"
	ReliabilityB SourceReliability = "B"
	ReliabilityC SourceReliability = "C"
	ReliabilityD SourceReliability = "D"
	ReliabilityE SourceReliability = "E"
	ReliabilityF SourceReliability = "F"
)

// SourceReliabilities lists the grades from A to F
var SourceReliabilities = []SourceReliability{ReliabilityA, ReliabilityB, ReliabilityC, ReliabilityD, ReliabilityE, ReliabilityF}

var reliabilityLabels = map[SourceReliability]string{
	ReliabilityA: "Completely reliable",
	ReliabilityB: "Usually reliable",
	ReliabilityC: "Fairly reliable",
	ReliabilityD: "Not usually reliable",
	ReliabilityE: "Unreliable",
	ReliabilityF: "Reliability unknown",
}

// Valid reports whether r is one of A to F
func (r SourceReliability) Valid() bool {
	_, ok := reliabilityLabels[r]
	return ok
}

// Label returns the description of the grade
func (r SourceReliability) Label() string {
	if label, ok := reliabilityLabels[r]; ok {
		return label
	}
	return string(r)
}

// AdversaryVertex describes who is behind an event
type AdversaryVertex struct {
	Name                  string `json:"name"`
	Aliases               string `json:"aliases"`
	Motivation            string `json:"motivation"`
	AttributionConfidence string `json:"attributionConfidence"`
}

// CapabilityVertex describes what the adversary used
type CapabilityVertex struct {
	Malware    string `json:"malware"`
	Tools      string `json:"tools"`
	Techniques string `json:"techniques"`
	AttackIDs  string `json:"attackIds"`
}

// InfrastructureVertex describes what the adversary operated from
type InfrastructureVertex struct {
	C2Servers        string `json:"c2Servers"`
	Domains          string `json:"domains"`
	IPs              string `json:"ips"`
	HostingProviders string `json:"hostingProviders"`
}

// VictimVertex describes who was targeted
type VictimVertex struct {
	Organization string `json:"organization"`
	Sector       string `json:"sector"`
	Geography    string `json:"geography"`
	Impact       string `json:"impact"`
}

// DiamondMeta carries the event features outside the four vertices.
// Timestamp is free text as reported, not a parsed time.
type DiamondMeta struct {
	Timestamp         string            `json:"timestamp"`
	Phase             KillChainPhase    `json:"phase"`
	Confidence        Confidence        `json:"confidence"`
	SourceReliability SourceReliability `json:"sourceReliability"`
	Notes             string            `json:"notes"`
}

// NewDiamondMeta returns the defaults of a fresh event
func NewDiamondMeta() DiamondMeta {
	return DiamondMeta{
		Phase:             PhaseRecon,
		Confidence:        ConfidencePossible,
		SourceReliability: ReliabilityC,
	}
}

// DiamondEvent is one intrusion event mapped onto the Diamond Model
type DiamondEvent struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Adversary      AdversaryVertex      `json:"adversary"`
	Capability     CapabilityVertex     `json:"capability"`
	Infrastructure InfrastructureVertex `json:"infrastructure"`
	Victim         VictimVertex         `json:"victim"`
	Meta           DiamondMeta          `json:"meta"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// VertexFill reports which vertices hold any non-blank field
type VertexFill struct {
	Adversary      bool `json:"adversary"`
	Capability     bool `json:"capability"`
	Infrastructure bool `json:"infrastructure"`
	Victim         bool `json:"victim"`
}

// Count returns the number of filled vertices
func (f VertexFill) Count() int {
	n := 0
	for _, filled := range []bool{f.Adversary, f.Capability, f.Infrastructure, f.Victim} {
		if filled {
			n++
		}
	}
	return n
}

// FillStatus reports which vertices of the event have been filled in
func (e *DiamondEvent) FillStatus() VertexFill {
	a, c, i, v := e.Adversary, e.Capability, e.Infrastructure, e.Victim
	return VertexFill{
		Adversary:      anyFilled(a.Name, a.Aliases, a.Motivation, a.AttributionConfidence),
		Capability:     anyFilled(c.Malware, c.Tools, c.Techniques, c.AttackIDs),
		Infrastructure: anyFilled(i.C2Servers, i.Domains, i.IPs, i.HostingProviders),
		Victim:         anyFilled(v.Organization, v.Sector, v.Geography, v.Impact),
	}
}

func anyFilled(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return true
		}
	}
	return false
}

// Event returns a pointer to the Diamond event with the given id, or nil
func (p *Project) Event(id string) *DiamondEvent {
	for i := range p.DiamondEvents {
		if p.DiamondEvents[i].ID == id {
			return &p.DiamondEvents[i]
		}
	}
	return nil
}
