package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/coc"
	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
)

var (
	ErrInvalidToken      = errors.New("токен не подтвержден")
	ErrAlreadyRegistered = errors.New("аккаунт уже привязан")
)

// PlayerAPI — часть клиента Clash of Clans для работы с игроками
type PlayerAPI interface {
	Player(ctx context.Context, playerTag string) (*coc.Player, error)
	ClanMembers(ctx context.Context, clanTag string) ([]coc.ClanMember, error)
	VerifyToken(ctx context.Context, playerTag, token string) (bool, error)
}

type MemberService interface {
	Register(ctx context.Context, telegramID int64, playerTag, apiToken string) (*models.Member, error)
	GetByTelegramID(telegramID int64) (*models.Member, error)
	Profile(ctx context.Context, member *models.Member) (*coc.Player, error)
	ToggleNotifications(member *models.Member) (bool, error)
	ToggleCategory(member *models.Member, eventType string) (bool, error)
	SetWindow(member *models.Member, window string) error
	SyncRoster(ctx context.Context) error
}

type memberService struct {
	memberRepo repo.MemberRepository
	api        PlayerAPI
	clanTag    string
}

func NewMemberService(memberRepo repo.MemberRepository, api PlayerAPI, clanTag string) MemberService {
	return &memberService{
		memberRepo: memberRepo,
		api:        api,
		clanTag:    clanTag,
	}
}

// Register привязывает игровой аккаунт к Telegram. Владение аккаунтом
// подтверждается API-токеном из настроек игры.
func (s *memberService) Register(ctx context.Context, telegramID int64, playerTag, apiToken string) (*models.Member, error) {
	playerTag = NormalizeTag(playerTag)

	if existing, err := s.memberRepo.GetByTag(playerTag); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	ok, err := s.api.VerifyToken(ctx, playerTag, apiToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}

	player, err := s.api.Player(ctx, playerTag)
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		TelegramID:    telegramID,
		PlayerTag:     playerTag,
		Name:          player.Name,
		NotifyEnabled: true,
		NotifyWar:     true,
		NotifyCwl:     true,
		NotifyCapital: true,
		NotifyWindow:  models.WindowAlways,
	}
	if err := s.memberRepo.Create(member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *memberService) GetByTelegramID(telegramID int64) (*models.Member, error) {
	return s.memberRepo.GetByTelegramID(telegramID)
}

func (s *memberService) Profile(ctx context.Context, member *models.Member) (*coc.Player, error) {
	return s.api.Player(ctx, member.PlayerTag)
}

func (s *memberService) ToggleNotifications(member *models.Member) (bool, error) {
	member.NotifyEnabled = !member.NotifyEnabled
	return member.NotifyEnabled, s.memberRepo.Update(member)
}

func (s *memberService) ToggleCategory(member *models.Member, eventType string) (bool, error) {
	var enabled bool
	switch eventType {
	case models.EventWar:
		member.NotifyWar = !member.NotifyWar
		enabled = member.NotifyWar
	case models.EventCwl:
		member.NotifyCwl = !member.NotifyCwl
		enabled = member.NotifyCwl
	case models.EventCapital:
		member.NotifyCapital = !member.NotifyCapital
		enabled = member.NotifyCapital
	default:
		return false, ErrUnknownEventType
	}
	return enabled, s.memberRepo.Update(member)
}

func (s *memberService) SetWindow(member *models.Member, window string) error {
	if window != models.WindowAlways && window != models.WindowDay {
		return errors.New("неизвестное окно доставки")
	}
	member.NotifyWindow = window
	return s.memberRepo.Update(member)
}

// SyncRoster сверяет зарегистрированных участников с текущим составом
// клана. Ушедших только логируем — решение об отвязке за админом.
func (s *memberService) SyncRoster(ctx context.Context) error {
	roster, err := s.api.ClanMembers(ctx, s.clanTag)
	if err != nil {
		return err
	}

	inClan := make(map[string]bool, len(roster))
	for _, m := range roster {
		inClan[m.Tag] = true
	}

	members, err := s.memberRepo.ListAll()
	if err != nil {
		return err
	}
	for _, member := range members {
		if !inClan[member.PlayerTag] {
			logrus.Printf("Сверка состава: %s (%s) больше не в клане", member.Name, member.PlayerTag)
		}
	}
	return nil
}

// NormalizeTag приводит игровой тег к виду #ABC123
func NormalizeTag(tag string) string {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	tag = strings.ReplaceAll(tag, "O", "0")
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}
