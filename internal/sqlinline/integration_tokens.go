package sqlinline

const QSelectIntegrationToken = `--sql ac1621aa-c813-46f8-894b-152e23ac269f
select token
from integration_tokens
where app_id = $1::text
  and provider = $2::text
limit 1;
`

const QUpsertIntegrationToken = `--sql 280400cf-2a71-4980-85c9-a92d522d98b6
insert into integration_tokens (app_id, provider, token, properties, created_at, updated_at)
values ($1::text, $2::text, $3::text, coalesce($4::jsonb, '{}'::jsonb), now(), now())
on conflict (app_id, provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
