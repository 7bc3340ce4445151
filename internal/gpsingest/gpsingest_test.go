package gpsingest

import (
	"testing"
	"time"
)

// Classic NMEA example sentences, checksums intact.
const (
	rmcSentence = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	rmcNoDate   = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,,003.1,W*65"
	ggaSentence = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	vtgSentence = "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48"
	gsaSentence = "$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39"
)

func TestRMCCommitsFix(t *testing.T) {
	s := New(nil)
	if _, ok := s.LatestFix(); ok {
		t.Fatal("fresh source should have no fix")
	}

	s.ingestLine(rmcSentence)

	fix, ok := s.LatestFix()
	if !ok {
		t.Fatal("expected a fix after a valid RMC sentence")
	}
	if fix.Latitude < 48.11 || fix.Latitude > 48.12 {
		t.Errorf("latitude = %v, want ~48.117", fix.Latitude)
	}
	if fix.Longitude < 11.51 || fix.Longitude > 11.52 {
		t.Errorf("longitude = %v, want ~11.516", fix.Longitude)
	}
	want := time.Date(2094, 3, 23, 12, 35, 19, 0, time.UTC)
	if !fix.Time.Equal(want) {
		t.Errorf("time = %v, want %v", fix.Time, want)
	}
}

func TestRMCWithoutDateIsIgnored(t *testing.T) {
	s := New(nil)
	s.ingestLine(rmcNoDate)
	if _, ok := s.LatestFix(); ok {
		t.Error("RMC without a date should not commit a fix")
	}
}

func TestGGAFillsAltitudeAndSatellites(t *testing.T) {
	s := New(nil)
	s.ingestLine(rmcSentence)
	s.ingestLine(ggaSentence)

	fix, ok := s.LatestFix()
	if !ok {
		t.Fatal("expected a fix")
	}
	if fix.Altitude != 545.4 {
		t.Errorf("altitude = %v, want 545.4", fix.Altitude)
	}
	if fix.Satellites != 8 {
		t.Errorf("satellites = %d, want 8", fix.Satellites)
	}
	if q := s.LatestQuality(); q.FixQuality != "GPS" || q.HDOP != 0.9 {
		t.Errorf("quality = %+v, want GPS fix, HDOP 0.9", q)
	}
}

func TestDiagnosticsFromGSAAndVTG(t *testing.T) {
	s := New(nil)
	s.ingestLine(gsaSentence)
	s.ingestLine(vtgSentence)

	if q := s.LatestQuality(); q.FixType != "3D" || q.PDOP != 2.5 || q.VDOP != 2.1 {
		t.Errorf("quality = %+v, want 3D / 2.5 / 2.1", q)
	}
	if v := s.LatestVelocity(); v.SpeedKmh != 10.2 {
		t.Errorf("velocity = %+v, want 10.2 km/h", v)
	}
}

func TestMalformedLinesAreSwallowed(t *testing.T) {
	s := New(nil)
	for _, line := range []string{
		"",
		"garbage",
		"$GPRMC,totally,broken*00",
		"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*FF", // bad checksum
	} {
		s.ingestLine(line)
	}
	if _, ok := s.LatestFix(); ok {
		t.Error("malformed sentences must not commit a fix")
	}
}
