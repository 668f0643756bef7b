package sqlinline

const QEnsureEventsTable = `--sql 7a49a9fb-3ad0-40cf-b26a-51da15c1d050
create table if not exists campaign_events (
    seq bigint primary key,
    campaign_id uuid not null,
    event_type text not null,
    payload jsonb not null,
    origin_country text,
    occurred_at timestamptz not null
);
`

const QEnsureEventsCampaignIndex = `--sql e21b1929-60b0-4dd4-aa8f-d765e304847c
create index if not exists campaign_events_campaign_id_idx
    on campaign_events (campaign_id, seq);
`

const QInsertEvent = `--sql ad59f39d-19b4-444b-9c7e-3027647a3f68
insert into campaign_events(seq, campaign_id, event_type, payload, origin_country, occurred_at)
values ($1::bigint, $2::uuid, $3::text, $4::jsonb, nullif($5::text, ''), $6::timestamptz)
on conflict (seq) do nothing;
`

const QListEventsSince = `--sql bfe90ce8-cb9d-42b2-b252-240d7bdb37ea
select seq, campaign_id, event_type, payload, occurred_at
from campaign_events
where seq > $1::bigint
order by seq asc;
`

const QListCampaignStarts = `--sql 29f873b5-3655-485e-b74f-e2784c526971
select seq, payload, occurred_at
from campaign_events
where event_type = 'project_started'
order by seq asc;
`

const QCountEvents = `--sql 9907b139-0022-42d4-bf97-953d216d3695
select count(*) from campaign_events;
`
