package msgs

import (
	"reflect"
	"strings"
	"testing"
)

var (
	_ ParentRepository = (*Broadcasts)(nil)
	_ ParentRepository = (*GORMBroadcasts)(nil)
	_ ParentRepository = (*BunBroadcasts)(nil)
	_ Transactor       = (*Broadcasts)(nil)
	_ Transactor       = (*GORMBroadcasts)(nil)
	_ Transactor       = (*BunBroadcasts)(nil)
	_ SourceRepository = (*Messages)(nil)
	_ SourceRepository = (*GORMMessages)(nil)
	_ SourceRepository = (*BunMessages)(nil)
)

func TestIDsAfterQuery(t *testing.T) {
	query, args, err := idsAfterQuery(41)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "SELECT id FROM msgs_broadcast WHERE id > $1 ORDER BY id ASC"
	if query != want {
		t.Errorf("got %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []any{int64(41)}) {
		t.Errorf("args: got %v, want [41]", args)
	}
}

func TestAddRecipientsQuery_OneRowPerContact(t *testing.T) {
	query, args, err := addRecipientsQuery(7, []int64{3, 5, 9})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "INSERT INTO msgs_broadcast_recipients (broadcast_id,contact_id) VALUES ($1,$2),($3,$4),($5,$6)"
	if query != want {
		t.Errorf("got %q, want %q", query, want)
	}
	wantArgs := []any{int64(7), int64(3), int64(7), int64(5), int64(7), int64(9)}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Errorf("args: got %v, want %v", args, wantArgs)
	}
}

func TestContactRefsQuery(t *testing.T) {
	query, _, err := contactRefsQuery(12)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "SELECT contact_id FROM msgs_msg WHERE broadcast_id = $1"
	if query != want {
		t.Errorf("got %q, want %q", query, want)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("sqlite", nil)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "sqlite") {
		t.Errorf("error should name the driver, got %v", err)
	}
}

func TestGORMModels_TableNames(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"broadcast", Broadcast{}.TableName(), "msgs_broadcast"},
		{"msg", Msg{}.TableName(), "msgs_msg"},
		{"recipient", BroadcastRecipient{}.TableName(), "msgs_broadcast_recipients"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
