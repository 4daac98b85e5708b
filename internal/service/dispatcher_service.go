package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/telegram"
)

const dispatchBatchSize = 100

// DispatcherService выстреливает созревшие отложенные уведомления и
// напоминания. Сбой пробуем пересдать до maxAttempts раз внутри одного
// тика; постоянные отказы (блокировка, удаленный чат) не пересдаем.
// Между тиками попыток нет: дубль уведомления хуже, чем изредка
// потерянное, поэтому исчерпавшее попытки помечается failed навсегда.
type DispatcherService interface {
	Tick(ctx context.Context) error
}

type dispatcherService struct {
	instanceRepo repo.InstanceRepository
	reminderRepo repo.ReminderRepository
	memberRepo   repo.MemberRepository
	sender       telegram.Sender
	maxAttempts  int
	now          func() time.Time
}

func NewDispatcherService(
	instanceRepo repo.InstanceRepository,
	reminderRepo repo.ReminderRepository,
	memberRepo repo.MemberRepository,
	sender telegram.Sender,
	maxAttempts int,
) DispatcherService {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &dispatcherService{
		instanceRepo: instanceRepo,
		reminderRepo: reminderRepo,
		memberRepo:   memberRepo,
		sender:       sender,
		maxAttempts:  maxAttempts,
		now:          time.Now,
	}
}

func (s *dispatcherService) Tick(ctx context.Context) error {
	now := s.now().UTC()

	instances, err := s.instanceRepo.ListDue(now, dispatchBatchSize)
	if err != nil {
		return err
	}
	for _, instance := range instances {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.deliver(instance.ChatID, instance.Payload)
		if err == nil {
			if err := s.instanceRepo.MarkSent(instance.ID, s.now().UTC()); err != nil {
				logrus.Printf("Диспетчер: не удалось отметить уведомление %d: %v", instance.ID, err)
			}
			continue
		}

		logrus.Printf("Диспетчер: уведомление %d не доставлено: %v", instance.ID, err)
		if err := s.instanceRepo.MarkFailed(instance.ID, err.Error()); err != nil {
			logrus.Printf("Диспетчер: не удалось отметить сбой %d: %v", instance.ID, err)
		}
		if telegram.IsPermanentError(err) {
			s.disableRecipient(instance.ChatID)
		}
	}

	reminders, err := s.reminderRepo.ListDue(now, dispatchBatchSize)
	if err != nil {
		return err
	}
	for _, reminder := range reminders {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.deliver(reminder.ChatID, reminder.MessageText)
		if err == nil {
			if err := s.reminderRepo.MarkSent(reminder.ID, s.now().UTC()); err != nil {
				logrus.Printf("Диспетчер: не удалось отметить напоминание %d: %v", reminder.ID, err)
			}
			continue
		}
		logrus.Printf("Диспетчер: напоминание %d не доставлено: %v", reminder.ID, err)
		if err := s.reminderRepo.MarkFailed(reminder.ID, err.Error()); err != nil {
			logrus.Printf("Диспетчер: не удалось отметить сбой напоминания %d: %v", reminder.ID, err)
		}
	}

	return nil
}

// deliver отправляет сообщение, пересдавая временные сбои до
// maxAttempts раз. Постоянная ошибка возвращается с первой попытки.
func (s *dispatcherService) deliver(chatID int64, text string) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.sender.Send(chatID, text)
		if err == nil || telegram.IsPermanentError(err) {
			return err
		}
		if attempt < s.maxAttempts {
			logrus.Printf("Диспетчер: попытка %d в чат %d не прошла: %v", attempt, chatID, err)
		}
	}
	return err
}

// disableRecipient выключает личную доставку, если адресат — участник,
// заблокировавший бота. Для групповых чатов ничего не делаем.
func (s *dispatcherService) disableRecipient(chatID int64) {
	member, err := s.memberRepo.GetByTelegramID(chatID)
	if err != nil || member == nil {
		return
	}
	if err := s.memberRepo.DisableNotifications(member.ID); err != nil {
		logrus.Printf("Диспетчер: не удалось отключить уведомления %s: %v", member.Name, err)
	}
}
