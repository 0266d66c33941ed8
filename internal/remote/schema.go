package remote

// SetupSQL creates the tables expected by the REST backend (PostgreSQL).
const SetupSQL = `create table if not exists bookmarks (
  id uuid primary key default gen_random_uuid(),
  url text not null,
  title text not null default '',
  source_type text not null default 'blog',
  status text not null default 'unread',
  tags text[] not null default '{}',
  notes text not null default '',
  image text not null default '',
  duration text not null default '',
  channel text not null default '',
  created_at timestamptz not null default now()
);

create table if not exists tag_areas (
  id uuid primary key default gen_random_uuid(),
  name text not null unique,
  emoji text not null default '',
  color text not null default '',
  description text not null default '',
  sort_order integer not null default 0,
  created_at timestamptz not null default now()
);

create table if not exists bookmark_tags (
  bookmark_id uuid not null references bookmarks(id) on delete cascade,
  tag_area_id uuid not null references tag_areas(id) on delete cascade,
  created_at timestamptz not null default now(),
  primary key (bookmark_id, tag_area_id)
);

create index if not exists idx_bookmarks_created_at on bookmarks(created_at desc);
create index if not exists idx_bookmark_tags_area on bookmark_tags(tag_area_id);
`
