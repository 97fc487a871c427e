package notify

import "testing"

// TestTicketThread_Fields はチケットスレッド参照の構築を検証する。
func TestTicketThread_Fields(t *testing.T) {
	ref := TicketThread("ticket-42")

	if ref.Type != ThreadTypeHelpdesk {
		t.Errorf("ref.Type = %q, want %q", ref.Type, ThreadTypeHelpdesk)
	}
	if ref.Key != "ticket-42" {
		t.Errorf("ref.Key = %q, want %q", ref.Key, "ticket-42")
	}
}

// TestProjectThread_CanonicalKey はプロジェクトスレッドのキーが
// 固定順で構築され、同じ組み合わせが常に同じキーになることを検証する。
func TestProjectThread_CanonicalKey(t *testing.T) {
	a := ProjectThread("p1", "s1", "d1", "04", "2026")
	b := ProjectThread("p1", "s1", "d1", "04", "2026")

	if a != b {
		t.Errorf("同一引数のProjectThreadが一致しない: %v != %v", a, b)
	}
	if a.Type != ThreadTypeProject {
		t.Errorf("a.Type = %q, want %q", a.Type, ThreadTypeProject)
	}
	if a.Key != "p1:s1:d1:04:2026" {
		t.Errorf("a.Key = %q, want %q", a.Key, "p1:s1:d1:04:2026")
	}
}

// TestProjectThread_OmittedDiscriminators は識別子の省略位置が異なる
// スレッド同士のキーが衝突しないことを検証する。
func TestProjectThread_OmittedDiscriminators(t *testing.T) {
	sectionOnly := ProjectThread("p1", "s1", "", "", "")
	documentOnly := ProjectThread("p1", "", "s1", "", "")
	plain := ProjectThread("p1", "", "", "", "")

	if sectionOnly.Key == documentOnly.Key {
		t.Errorf("省略位置の異なるキーが衝突: %q", sectionOnly.Key)
	}
	if sectionOnly.Key == plain.Key || documentOnly.Key == plain.Key {
		t.Error("識別子ありのキーが識別子なしのキーと衝突")
	}
	if plain.Key != "p1:-:-:-:-" {
		t.Errorf("plain.Key = %q, want %q", plain.Key, "p1:-:-:-:-")
	}
}

// TestTrackerThread_GenericKind は任意種別のスレッド参照を検証する。
func TestTrackerThread_GenericKind(t *testing.T) {
	ref := TrackerThread("client", "c-9")

	if ref.Type != "client" {
		t.Errorf("ref.Type = %q, want %q", ref.Type, "client")
	}
	if ref.Key != "c-9" {
		t.Errorf("ref.Key = %q, want %q", ref.Key, "c-9")
	}
}

// TestThreadRef_IsZero はゼロ値判定を検証する。
func TestThreadRef_IsZero(t *testing.T) {
	if !(ThreadRef{}).IsZero() {
		t.Error("ゼロ値のThreadRefがIsZero()=falseになった")
	}
	if TicketThread("t1").IsZero() {
		t.Error("構築済みのThreadRefがIsZero()=trueになった")
	}
}
