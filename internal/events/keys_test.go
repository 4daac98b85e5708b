package events

import (
	"testing"

	"github.com/KinkLid/cocBot-sub000/internal/coc"
)

func TestWarKey(t *testing.T) {
	t.Parallel()

	// Вне войны ключа нет
	if key := WarKey(&coc.CurrentWar{State: coc.WarStateNotInWar}, "#CLAN"); key != "" {
		t.Fatalf("WarKey(notInWar) = %q, ожидали пустой", key)
	}
	if key := WarKey(nil, "#CLAN"); key != "" {
		t.Fatalf("WarKey(nil) = %q, ожидали пустой", key)
	}

	// Война с тегом — ключом служит тег
	war := &coc.CurrentWar{State: coc.WarStateInWar, WarTag: "#ABC123"}
	if key := WarKey(war, "#CLAN"); key != "#ABC123" {
		t.Fatalf("WarKey = %q, ожидали #ABC123", key)
	}

	// Тег "#0" — война еще не разыграна, считаем что тега нет
	war = &coc.CurrentWar{
		State:                coc.WarStatePreparation,
		WarTag:               "#0",
		PreparationStartTime: "20260815T070000.000Z",
	}
	if key := WarKey(war, "#CLAN"); key != "#CLAN@20260815T070000.000Z" {
		t.Fatalf("WarKey = %q", key)
	}

	// Без тега и без времени подготовки ключ не построить
	war = &coc.CurrentWar{State: coc.WarStatePreparation}
	if key := WarKey(war, "#CLAN"); key != "" {
		t.Fatalf("WarKey без данных = %q, ожидали пустой", key)
	}
}

func TestWarKeyStableAcrossStates(t *testing.T) {
	t.Parallel()

	// Ключ одной войны не меняется при переходах между состояниями
	prep := &coc.CurrentWar{
		State:                coc.WarStatePreparation,
		PreparationStartTime: "20260815T070000.000Z",
	}
	inWar := &coc.CurrentWar{
		State:                coc.WarStateInWar,
		PreparationStartTime: "20260815T070000.000Z",
	}
	ended := &coc.CurrentWar{
		State:                coc.WarStateEnded,
		PreparationStartTime: "20260815T070000.000Z",
	}

	k1, k2, k3 := WarKey(prep, "#CLAN"), WarKey(inWar, "#CLAN"), WarKey(ended, "#CLAN")
	if k1 == "" || k1 != k2 || k2 != k3 {
		t.Fatalf("ключи разошлись: %q, %q, %q", k1, k2, k3)
	}
}

func TestCwlWarKey(t *testing.T) {
	t.Parallel()

	if key := CwlWarKey("#ROUND1"); key != "#ROUND1" {
		t.Fatalf("CwlWarKey = %q", key)
	}
	if key := CwlWarKey("#0"); key != "" {
		t.Fatalf("CwlWarKey(#0) = %q, ожидали пустой", key)
	}
	if key := CwlWarKey(""); key != "" {
		t.Fatalf("CwlWarKey(пусто) = %q, ожидали пустой", key)
	}
}

func TestRaidKey(t *testing.T) {
	t.Parallel()

	season := &coc.RaidSeason{State: "ongoing", EndTime: "20260817T070000.000Z"}
	if key := RaidKey(season); key != "20260817T070000.000Z" {
		t.Fatalf("RaidKey = %q", key)
	}
	if key := RaidKey(&coc.RaidSeason{State: "ongoing"}); key != "" {
		t.Fatalf("RaidKey без endTime = %q, ожидали пустой", key)
	}
	if key := RaidKey(nil); key != "" {
		t.Fatalf("RaidKey(nil) = %q, ожидали пустой", key)
	}
}
