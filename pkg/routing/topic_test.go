package routing

import (
	"errors"
	"testing"

	"github.com/platinummonkey/fleetgate/pkg/store"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		want    store.Key
		wantErr bool
	}{
		{
			name:  "valid topic",
			topic: "tenant/t1/robot/r5/status",
			want:  store.Key{TenantID: "t1", RobotID: "r5"},
		},
		{
			name:    "too few segments",
			topic:   "tenant/t1/robot/status",
			wantErr: true,
		},
		{
			name:    "too many segments",
			topic:   "tenant/t1/robot/r5/status/extra",
			wantErr: true,
		},
		{
			name:    "wrong prefix",
			topic:   "fleet/t1/robot/r5/status",
			wantErr: true,
		},
		{
			name:    "wrong middle literal",
			topic:   "tenant/t1/device/r5/status",
			wantErr: true,
		},
		{
			name:    "wrong suffix",
			topic:   "tenant/t1/robot/r5/telemetry",
			wantErr: true,
		},
		{
			name:    "empty tenant",
			topic:   "tenant//robot/r5/status",
			wantErr: true,
		},
		{
			name:    "empty robot",
			topic:   "tenant/t1/robot//status",
			wantErr: true,
		},
		{
			name:    "empty topic",
			topic:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopic(tt.topic)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedTopic) {
					t.Fatalf("err = %v, want ErrMalformedTopic", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTopic(%q): %v", tt.topic, err)
			}
			if got != tt.want {
				t.Errorf("key = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStatusTopicRoundTrip(t *testing.T) {
	key := store.Key{TenantID: "acme", RobotID: "rover-7"}
	got, err := ParseTopic(StatusTopic(key))
	if err != nil {
		t.Fatalf("ParseTopic: %v", err)
	}
	if got != key {
		t.Errorf("round trip = %+v, want %+v", got, key)
	}
}
