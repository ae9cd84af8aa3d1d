package record

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math/rand"
)

// DefaultSampleSetSize is how many distinct payloads the generator cycles
// through. Ids map onto the sample set modulo this size.
const DefaultSampleSetSize = 100

// ----------------------------------------------------------------------------
// Sample tables
// ----------------------------------------------------------------------------

type location struct {
	CountryCode string
	CountryName string
	State       string
	City        string
	ZipCode     string
	Lat         float64
	Lng         float64
	Timezone    string
	UTCOffset   int
}

var sampleLocations = []location{
	{"US", "United States", "California", "San Francisco", "94102", 37.7749, -122.4194, "America/Los_Angeles", -28800},
	{"US", "United States", "New York", "New York", "10001", 40.7128, -74.0060, "America/New_York", -18000},
	{"US", "United States", "Texas", "Austin", "73301", 30.2672, -97.7431, "America/Chicago", -21600},
	{"GB", "United Kingdom", "England", "London", "SW1A 1AA", 51.5074, -0.1278, "Europe/London", 0},
	{"DE", "Germany", "Bavaria", "Munich", "80331", 48.1351, 11.5820, "Europe/Berlin", 3600},
	{"JP", "Japan", "Tokyo", "Tokyo", "100-0001", 35.6762, 139.6503, "Asia/Tokyo", 32400},
	{"AU", "Australia", "New South Wales", "Sydney", "2000", -33.8688, 151.2093, "Australia/Sydney", 36000},
	{"CA", "Canada", "Ontario", "Toronto", "M5H 2N2", 43.6532, -79.3832, "America/Toronto", -18000},
	{"FR", "France", "Île-de-France", "Paris", "75001", 48.8566, 2.3522, "Europe/Paris", 3600},
	{"BR", "Brazil", "São Paulo", "São Paulo", "01310-100", -23.5505, -46.6333, "America/Sao_Paulo", -10800},
	{"IN", "India", "Maharashtra", "Mumbai", "400001", 19.0760, 72.8777, "Asia/Kolkata", 19800},
	{"SG", "Singapore", "Singapore", "Singapore", "018989", 1.3521, 103.8198, "Asia/Singapore", 28800},
}

type asn struct {
	Number int
	Name   string
}

var sampleASNs = []asn{
	{15169, "Google LLC"},
	{8075, "Microsoft Corporation"},
	{16509, "Amazon.com Inc"},
	{13335, "Cloudflare Inc"},
	{7922, "Comcast Cable Communications"},
	{701, "Verizon Business"},
	{7018, "AT&T Services Inc"},
	{20115, "Charter Communications"},
	{3356, "Level 3 Parent LLC"},
	{174, "Cogent Communications"},
}

var (
	sampleNetworkTypes = []string{"business", "residential", "mobile", "hosting", "education", "government"}

	sampleISPs = []string{
		"Comcast", "Verizon", "AT&T", "Charter", "CenturyLink", "Cox", "Optimum",
		"Spectrum", "Xfinity", "T-Mobile", "Amazon AWS", "Google Cloud",
		"Microsoft Azure", "DigitalOcean", "Cloudflare",
	}

	sampleOrganizations = []string{
		"Enterprise Corp", "Tech Solutions Inc", "Global Networks Ltd",
		"Data Systems LLC", "Cloud Services Co", "Internet Provider Inc",
		"Telecom Solutions", "Business Networks", "Hosting Services",
		"ISP Corporation",
	}

	sampleConnectionTypes = []string{"cable", "dsl", "fiber", "satellite", "cellular", "t1", "t3", "ethernet", "wireless"}
	sampleUsageTypes      = []string{"commercial", "residential", "educational", "government", "military", "healthcare", "financial"}
	sampleBandwidthTiers  = []string{"low", "medium", "high", "enterprise", "premium", "unlimited"}
	sampleCarriers        = []string{"Verizon Wireless", "AT&T Mobility", "T-Mobile USA", "Sprint", "US Cellular", "Cricket", "Metro PCS"}
	sampleLineSpeeds      = []string{"56k", "128k", "256k", "512k", "1Mbps", "5Mbps", "10Mbps", "25Mbps", "50Mbps", "100Mbps", "1Gbps"}
	samplePrivacyLevels   = []string{"public", "restricted", "private", "confidential", "classified"}
	sampleRegions         = []string{"North America", "South America", "Europe", "Asia Pacific", "Middle East", "Africa", "Oceania"}
	sampleTags            = []string{"datacenter", "residential", "mobile", "vpn", "proxy", "tor", "scanner", "legitimate"}
	sampleDomains         = []string{"example.com", "test.org", "sample.net", "demo.co", "corp.internal", "business.local"}
	sampleDNSServers      = []string{"8.8.8.8", "8.8.4.4", "1.1.1.1", "1.0.0.1", "208.67.222.222", "208.67.220.220"}

	sampleNotes = []string{
		"High-traffic endpoint with consistent usage patterns. Monitored for security compliance.",
		"Corporate network endpoint with standard business applications. Regular security scans performed.",
		"Residential broadband connection with typical consumer usage. No security concerns identified.",
		"Mobile device connection with variable location data. Standard carrier security policies applied.",
		"Data center hosting environment with multiple virtual instances. Enhanced monitoring enabled.",
		"Educational institution network with student and faculty access. Content filtering active.",
		"Government network segment with restricted access policies. High security classification required.",
	}
)

// ----------------------------------------------------------------------------
// Record
// ----------------------------------------------------------------------------

// Record is the geolocation-style payload stored per key. Field names follow
// the export format consumed by downstream tooling; the payload serializes to
// roughly one kilobyte of JSON.
type Record struct {
	SampleIndex int    `json:"sample_index"`
	Network     string `json:"network"`

	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	State       string  `json:"state"`
	City        string  `json:"city"`
	ZipCode     string  `json:"zip_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Region      string  `json:"region"`
	PostalCode  string  `json:"postal_code"`
	AreaCode    string  `json:"area_code"`
	MetroCode   int     `json:"metro_code"`

	TimezoneID string `json:"timezone_id"`
	UTCOffset  int    `json:"utc_offset"`
	DSTActive  bool   `json:"dst_active"`

	NetworkType    string `json:"network_type"`
	ISP            string `json:"isp"`
	Organization   string `json:"organization"`
	ASN            int    `json:"asn"`
	ASNName        string `json:"asn_name"`
	ConnectionType string `json:"connection_type"`
	UsageType      string `json:"usage_type"`
	Domain         string `json:"domain"`
	Hostname       string `json:"hostname"`
	Carrier        string `json:"carrier"`
	LineSpeed      string `json:"line_speed"`
	StaticIP       bool   `json:"static_ip"`

	VPNDetected     bool    `json:"vpn_detected"`
	ProxyDetected   bool    `json:"proxy_detected"`
	ReputationScore float64 `json:"reputation_score"`

	BandwidthTier  string `json:"bandwidth_tier"`
	EstimatedUsers int    `json:"estimated_users"`

	GDPRApplicable    bool   `json:"gdpr_applicable"`
	DataRetentionDays int    `json:"data_retention_days"`
	PrivacyLevel      string `json:"privacy_level"`

	IPVersion  int      `json:"ip_version"`
	SubnetMask string   `json:"subnet_mask"`
	DNSServers []string `json:"dns_servers"`

	Notes string   `json:"notes"`
	Tags  []string `json:"tags"`
}

// ----------------------------------------------------------------------------
// Generator
// ----------------------------------------------------------------------------

// Generator produces serialized records for integer ids. Payloads are
// pre-built once for the whole sample set, so Generate is a slice lookup on
// the hot path.
//
// Thread-safe: the payload table is immutable after construction.
type Generator struct {
	sampleSetSize int
	payloads      [][]byte
}

// NewGenerator builds a generator with the given sample-set size.
// A size of zero or less falls back to DefaultSampleSetSize.
func NewGenerator(sampleSetSize int) *Generator {
	if sampleSetSize <= 0 {
		sampleSetSize = DefaultSampleSetSize
	}

	g := &Generator{
		sampleSetSize: sampleSetSize,
		payloads:      make([][]byte, sampleSetSize),
	}

	for i := 0; i < sampleSetSize; i++ {
		payload, err := json.Marshal(buildRecord(i))
		if err != nil {
			// Record contains only marshalable fields; this cannot fail
			// for any sample index.
			panic(fmt.Sprintf("record: marshal sample %d: %v", i, err))
		}
		g.payloads[i] = payload
	}

	return g
}

// SampleSetSize returns the number of distinct payloads in the cycle.
func (g *Generator) SampleSetSize() int {
	return g.sampleSetSize
}

// Generate returns the serialized payload for a record id. Ids cycle through
// the sample set modulo its size; the returned slice must not be mutated.
func (g *Generator) Generate(id int) []byte {
	return g.payloads[id%g.sampleSetSize]
}

// AverageSize returns the mean payload size in bytes across the sample set.
func (g *Generator) AverageSize() int {
	if len(g.payloads) == 0 {
		return 0
	}
	total := 0
	for _, p := range g.payloads {
		total += len(p)
	}
	return total / len(g.payloads)
}

// buildRecord derives a record from a sample index. All fields come from a
// PRNG seeded with the index, so the output is stable across calls and
// processes.
func buildRecord(sampleIndex int) Record {
	rng := rand.New(rand.NewSource(seedFor(sampleIndex)))

	loc := sampleLocations[rng.Intn(len(sampleLocations))]
	as := sampleASNs[rng.Intn(len(sampleASNs))]
	networkType := sampleNetworkTypes[rng.Intn(len(sampleNetworkTypes))]
	domain := sampleDomains[rng.Intn(len(sampleDomains))]

	// Jitter coordinates within ~10km so samples sharing a base city still
	// look distinct.
	lat := loc.Lat + (rng.Float64()*0.2 - 0.1)
	lng := loc.Lng + (rng.Float64()*0.2 - 0.1)

	postal := loc.ZipCode
	if loc.CountryCode == "US" {
		postal = fmt.Sprintf("%s-%d", loc.ZipCode, 1000+rng.Intn(9000))
	}

	carrier := ""
	if networkType == "mobile" {
		carrier = sampleCarriers[rng.Intn(len(sampleCarriers))]
	}

	dns := make([]string, 0, 4)
	for _, i := range rng.Perm(len(sampleDNSServers))[:2+rng.Intn(3)] {
		dns = append(dns, sampleDNSServers[i])
	}

	tags := make([]string, 0, 5)
	for _, i := range rng.Perm(len(sampleTags))[:2+rng.Intn(4)] {
		tags = append(tags, sampleTags[i])
	}

	return Record{
		SampleIndex: sampleIndex,
		Network:     fmt.Sprintf("198.51.%d.0/24", sampleIndex%256),

		CountryCode: loc.CountryCode,
		CountryName: loc.CountryName,
		State:       loc.State,
		City:        loc.City,
		ZipCode:     loc.ZipCode,
		Latitude:    float64(int(lat*1e6)) / 1e6,
		Longitude:   float64(int(lng*1e6)) / 1e6,
		Region:      sampleRegions[rng.Intn(len(sampleRegions))],
		PostalCode:  postal,
		AreaCode:    fmt.Sprintf("%d", 200+rng.Intn(800)),
		MetroCode:   500 + rng.Intn(400),

		TimezoneID: loc.Timezone,
		UTCOffset:  loc.UTCOffset,
		DSTActive:  rng.Intn(2) == 0,

		NetworkType:    networkType,
		ISP:            sampleISPs[rng.Intn(len(sampleISPs))],
		Organization:   sampleOrganizations[rng.Intn(len(sampleOrganizations))],
		ASN:            as.Number,
		ASNName:        as.Name,
		ConnectionType: sampleConnectionTypes[rng.Intn(len(sampleConnectionTypes))],
		UsageType:      sampleUsageTypes[rng.Intn(len(sampleUsageTypes))],
		Domain:         domain,
		Hostname:       fmt.Sprintf("host-%d.%s", sampleIndex, domain),
		Carrier:        carrier,
		LineSpeed:      sampleLineSpeeds[rng.Intn(len(sampleLineSpeeds))],
		StaticIP:       rng.Intn(2) == 0,

		VPNDetected:     rng.Intn(4) == 0,
		ProxyDetected:   rng.Intn(4) == 0,
		ReputationScore: float64(int(rng.Float64()*10000)) / 100,

		BandwidthTier:  sampleBandwidthTiers[rng.Intn(len(sampleBandwidthTiers))],
		EstimatedUsers: 1 + rng.Intn(500),

		GDPRApplicable:    rng.Intn(2) == 0,
		DataRetentionDays: []int{30, 90, 180, 365, 1095}[rng.Intn(5)],
		PrivacyLevel:      samplePrivacyLevels[rng.Intn(len(samplePrivacyLevels))],

		IPVersion:  4,
		SubnetMask: "255.255.255.0",
		DNSServers: dns,

		Notes: sampleNotes[rng.Intn(len(sampleNotes))],
		Tags:  tags,
	}
}

// seedFor hashes a sample index to a PRNG seed.
func seedFor(sampleIndex int) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "sample-%d", sampleIndex)
	return int64(h.Sum64())
}
