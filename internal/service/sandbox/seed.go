package sandbox

import (
	"time"

	"github.com/DevFlex-AI/idea-ai-engine/internal/domain"
)

const reactAppContent = `import React, { useState } from 'react';
import { Button } from './components/ui/button';
import { Card, CardContent, CardHeader, CardTitle } from './components/ui/card';
import { Brain, Sparkles } from 'lucide-react';

function App() {
  const [count, setCount] = useState(0);

  return (
    <div className="min-h-screen bg-gradient-to-br from-purple-900 via-blue-900 to-indigo-900 p-8">
      <div className="container mx-auto text-center">
        <Brain className="w-8 h-8 text-white inline-flex mb-6" />
        <h1 className="text-5xl font-bold text-white mb-4">Welcome to Vortex</h1>
        <p className="text-xl text-purple-200 mb-8">AI-Powered Development Platform</p>
        <Card className="bg-white/10 backdrop-blur border-white/20 max-w-md mx-auto">
          <CardHeader>
            <CardTitle className="text-white">Interactive Counter</CardTitle>
          </CardHeader>
          <CardContent>
            <div className="text-4xl font-bold text-white mb-4">{count}</div>
            <Button onClick={() => setCount(count + 1)}>Increment</Button>
            <Button variant="outline" onClick={() => setCount(0)}>Reset</Button>
          </CardContent>
        </Card>
      </div>
    </div>
  );
}

export default App;
`

const reactPackageJSON = `{
  "name": "vortex-sandbox-app",
  "private": true,
  "version": "0.0.0",
  "type": "module",
  "scripts": {
    "dev": "vite",
    "build": "tsc && vite build",
    "preview": "vite preview"
  },
  "dependencies": {
    "react": "^18.2.0",
    "react-dom": "^18.2.0"
  },
  "devDependencies": {
    "@types/react": "^18.2.0",
    "tailwindcss": "^3.4.0",
    "typescript": "^5.2.0",
    "vite": "^5.0.0"
  }
}
`

const reactNativeAppContent = `import React, { useState } from 'react';
import { SafeAreaView, Text, TouchableOpacity, View, StyleSheet } from 'react-native';

export default function App() {
  const [count, setCount] = useState(0);

  return (
    <SafeAreaView style={styles.container}>
      <Text style={styles.title}>Vortex Mobile</Text>
      <Text style={styles.counter}>{count}</Text>
      <View style={styles.row}>
        <TouchableOpacity style={styles.button} onPress={() => setCount(count + 1)}>
          <Text style={styles.buttonText}>Increment</Text>
        </TouchableOpacity>
        <TouchableOpacity style={styles.button} onPress={() => setCount(0)}>
          <Text style={styles.buttonText}>Reset</Text>
        </TouchableOpacity>
      </View>
    </SafeAreaView>
  );
}

const styles = StyleSheet.create({
  container: { flex: 1, alignItems: 'center', justifyContent: 'center', backgroundColor: '#1e1b4b' },
  title: { fontSize: 32, fontWeight: 'bold', color: '#fff', marginBottom: 24 },
  counter: { fontSize: 48, color: '#fff', marginBottom: 24 },
  row: { flexDirection: 'row', gap: 12 },
  button: { backgroundColor: '#7c3aed', paddingHorizontal: 24, paddingVertical: 12, borderRadius: 8 },
  buttonText: { color: '#fff', fontWeight: '600' },
});
`

const nodeServerContent = `import express from 'express';
import cors from 'cors';
import helmet from 'helmet';
import rateLimit from 'express-rate-limit';

const app = express();
app.use(helmet());
app.use(cors());
app.use(express.json());
app.use(rateLimit({ windowMs: 60_000, max: 120 }));

app.get('/api/health', (req, res) => {
  res.json({
    status: 'healthy',
    uptime: process.uptime(),
    memory: process.memoryUsage()
  });
});

app.get('/api/sandbox/environments', (req, res) => {
  res.json({
    environments: [
      { id: 'web', name: 'Web App', status: 'running' },
      { id: 'mobile', name: 'Mobile App', status: 'idle' },
      { id: 'backend', name: 'Backend API', status: 'running' }
    ]
  });
});

const port = process.env.PORT ?? 3001;
app.listen(port, () => console.log('Vortex backend listening on ' + port));
`

const pythonServiceContent = `from fastapi import FastAPI, HTTPException
from pydantic import BaseModel

app = FastAPI(title="Vortex AI Service")


class GenerateRequest(BaseModel):
    prompt: str
    agent_type: str = "vortex"


@app.get("/health")
def health():
    return {"status": "healthy", "service": "vortex-ai"}


@app.post("/generate")
def generate(request: GenerateRequest):
    if not request.prompt:
        raise HTTPException(status_code=400, detail="Prompt is required")
    return {"response": f"Generated for: {request.prompt}", "status": "running"}
`

// DefaultEnvironments returns the seeded environment set. Callers receive
// fresh copies on every invocation so tests stay isolated.
func DefaultEnvironments() []domain.Environment {
	now := time.Now()
	return []domain.Environment{
		{
			ID:        "react-web",
			Name:      "React Web App",
			Language:  "typescript",
			Framework: "react",
			Status:    domain.StatusIdle,
			Secure:    false,
			Files: []domain.SandboxFile{
				{ID: "app-tsx", Name: "App.tsx", Path: "/src/App.tsx", Content: reactAppContent, Language: "typescript"},
				{ID: "package-json", Name: "package.json", Path: "/package.json", Content: reactPackageJSON, Language: "json"},
			},
			Dependencies: []string{"react", "react-dom", "@types/react", "vite", "tailwindcss"},
			BuildLogs:    []string{},
			Limits:       domain.ResourceLimits{CPU: "1 core", Memory: "512MB", Timeout: "30s"},
			LastModified: now,
		},
		{
			ID:        "react-native",
			Name:      "React Native App",
			Language:  "typescript",
			Framework: "react-native",
			Status:    domain.StatusIdle,
			Secure:    true,
			Files: []domain.SandboxFile{
				{ID: "app-native", Name: "App.tsx", Path: "/App.tsx", Content: reactNativeAppContent, Language: "typescript"},
			},
			Dependencies: []string{"react-native", "@types/react", "@types/react-native", "expo"},
			BuildLogs:    []string{},
			Limits:       domain.ResourceLimits{CPU: "2 cores", Memory: "1GB", Timeout: "60s"},
			LastModified: now,
		},
		{
			ID:        "node-backend",
			Name:      "Node.js Backend",
			Language:  "typescript",
			Framework: "express",
			Status:    domain.StatusIdle,
			Secure:    false,
			Files: []domain.SandboxFile{
				{ID: "server-ts", Name: "server.ts", Path: "/src/server.ts", Content: nodeServerContent, Language: "typescript"},
			},
			Dependencies: []string{"express", "@types/express", "cors", "helmet", "express-rate-limit", "typescript", "ts-node"},
			BuildLogs:    []string{},
			Limits:       domain.ResourceLimits{CPU: "1 core", Memory: "256MB", Timeout: "30s"},
			LastModified: now,
		},
		{
			ID:        "python-ai",
			Name:      "Python AI Service",
			Language:  "python",
			Framework: "fastapi",
			Status:    domain.StatusIdle,
			Secure:    true,
			Files: []domain.SandboxFile{
				{ID: "main-py", Name: "main.py", Path: "/main.py", Content: pythonServiceContent, Language: "python"},
			},
			Dependencies: []string{"fastapi", "uvicorn", "pydantic", "python-multipart"},
			BuildLogs:    []string{},
			Limits:       domain.ResourceLimits{CPU: "1 core", Memory: "512MB", Timeout: "45s"},
			LastModified: now,
		},
	}
}
