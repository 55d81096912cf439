package postgres

const querySelectCandidates = `
SELECT
    e.id, e.name, e.description, e.location, e.date,
    a.event_id, a.user_id, a.rsvp_status, a.last_reminder_sent,
    u.id, u.email, u.phone_number, u.reminder_type, u.reminder_time, u.timezone
FROM events e
JOIN event_attendees a ON a.event_id = e.id
JOIN users u ON u.id = a.user_id
WHERE e.date >= $1
  AND e.date < $2
  AND a.rsvp_status <> 'no'
ORDER BY e.date, a.user_id
`

const queryMarkReminderSent = `
UPDATE event_attendees
SET last_reminder_sent = $1
WHERE event_id = $2
  AND user_id = $3
  AND (last_reminder_sent IS NULL OR last_reminder_sent < $4)
`

const queryGetLastReminderSent = `
SELECT last_reminder_sent
FROM event_attendees
WHERE event_id = $1 AND user_id = $2
`

const queryInsertReminderLog = `
INSERT INTO reminder_log (id, event_id, user_id, channel, status, error, sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const queryPruneReminderLog = `
DELETE FROM reminder_log
WHERE id IN (
    SELECT id FROM reminder_log
    WHERE sent_at < $1
    ORDER BY sent_at ASC
    LIMIT $2
)
`
